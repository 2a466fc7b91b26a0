// garnet-trace - inspect recorded garnet trace sessions
//
// Sessions are backtrace snapshots captured from running thread contexts and
// persisted to the trace store configured in garnet.toml.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/garnet/manifest"
	"github.com/chazu/garnet/trace"
)

func main() {
	dbPath := flag.String("db", "", "Trace store path (overrides garnet.toml)")
	verbose := flag.Int("v", 0, "Log verbosity (0-2)")
	cropEval := flag.Bool("crop-eval", false, "Stop trace output at the first eval boundary")
	output := flag.String("o", "", "Output file for export (default stdout)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: garnet-trace [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list             List recorded sessions\n")
		fmt.Fprintf(os.Stderr, "  show <id>        Print a session's trace lines\n")
		fmt.Fprintf(os.Stderr, "  export <id>      Write a session's CBOR wire form\n")
		fmt.Fprintf(os.Stderr, "  delete <id>      Remove a session\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := openStore(*dbPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	switch args[0] {
	case "list":
		err = runList(store)
	case "show":
		err = withSessionID(args, func(id string) error { return runShow(store, id, *cropEval) })
	case "export":
		err = withSessionID(args, func(id string) error { return runExport(store, id, *output) })
	case "delete":
		err = withSessionID(args, func(id string) error { return store.DeleteSession(id) })
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

// openStore resolves the store path: the -db flag, then the trace section of
// a garnet.toml found from the working directory, then a local default.
func openStore(flagPath string) (*trace.Store, error) {
	path := flagPath
	if path == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			return nil, err
		}
		if m != nil {
			path = m.Trace.Store
		}
	}
	if path == "" {
		path = "garnet-trace.db"
	}
	return trace.Open(path)
}

func withSessionID(args []string, fn func(id string) error) error {
	if len(args) < 2 {
		return errors.New("missing session id")
	}
	return fn(args[1])
}

func runList(store *trace.Store) error {
	infos, err := store.ListSessions()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%-24s %-16s %s  %d frames\n",
			info.ID, info.Thread, info.CreatedAt.Format("2006-01-02 15:04:05"), info.Frames)
	}
	return nil
}

func runShow(store *trace.Store, id string, cropEval bool) error {
	session, err := store.LoadSession(id)
	if err != nil {
		return err
	}
	fmt.Printf("session %s (thread %q, %s)\n", session.ID, session.Thread,
		session.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, line := range session.Lines(cropEval) {
		fmt.Printf("  %s\n", line)
	}
	return nil
}

func runExport(store *trace.Store, id string, output string) error {
	session, err := store.LoadSession(id)
	if err != nil {
		return err
	}
	data, err := trace.MarshalSession(session)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0644)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "garnet-trace: %v\n", err)
	os.Exit(1)
}
