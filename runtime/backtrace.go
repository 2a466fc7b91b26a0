package runtime

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// BacktraceEntry: the cheap running trace
// ---------------------------------------------------------------------------

// BacktraceEntry is one (method, file, line) triple on the running trace
// stack. The top entry is mutated in place on every source-position change so
// tracking position costs no allocation.
type BacktraceEntry struct {
	Method   string
	Filename string
	Line     int
}

// Clone returns an independent copy of the entry.
func (b *BacktraceEntry) Clone() *BacktraceEntry {
	return &BacktraceEntry{Method: b.Method, Filename: b.Filename, Line: b.Line}
}

func (b *BacktraceEntry) String() string {
	return fmt.Sprintf("%s at %s:%d", b.Method, b.Filename, b.Line)
}

// ---------------------------------------------------------------------------
// Frame classification for merged traces
// ---------------------------------------------------------------------------

// FrameType classifies an interpreter entry point for merged trace assembly.
type FrameType int

const (
	FrameTypeMethod FrameType = iota
	FrameTypeBlock
	FrameTypeEval
	FrameTypeClass
	FrameTypeRoot
)

// Call-site markers the interpreter attaches to the native frames it owns.
// Classification works off these explicit tags; host stack text is never
// parsed.
const (
	MarkerInterpretMethod = "garnet.interpret.method"
	MarkerInterpretBlock  = "garnet.interpret.block"
	MarkerInterpretEval   = "garnet.interpret.eval"
	MarkerInterpretClass  = "garnet.interpret.class"
	MarkerInterpretRoot   = "garnet.interpret.root"
)

var interpretedFrames = map[string]FrameType{
	MarkerInterpretMethod: FrameTypeMethod,
	MarkerInterpretBlock:  FrameTypeBlock,
	MarkerInterpretEval:   FrameTypeEval,
	MarkerInterpretClass:  FrameTypeClass,
	MarkerInterpretRoot:   FrameTypeRoot,
}

// ClassifyFrame maps a native frame's marker to its FrameType. Unmarked
// frames are dispatch scaffolding and get dropped from merged traces.
func ClassifyFrame(marker string) (FrameType, bool) {
	ft, ok := interpretedFrames[marker]
	return ft, ok
}

// NativeFrame is one entry of a raw host call-stack capture, as handed in by
// the capture source. Only the marker matters for classification.
type NativeFrame struct {
	Marker string
	File   string
	Line   int
	Method string
}

// ---------------------------------------------------------------------------
// Trace line assembly
// ---------------------------------------------------------------------------

// formatTraceLine renders one trace line from an entry and the entry one call
// level out. The position comes from entry, the method name from previous;
// an unknown previous method drops the "in" clause.
func formatTraceLine(entry, previous *BacktraceEntry) string {
	if previous.Method == UnknownName {
		return fmt.Sprintf("%s:%d", entry.Filename, entry.Line+1)
	}
	return fmt.Sprintf("%s:%d:in '%s'", entry.Filename, entry.Line+1, previous.Method)
}

// formatTypedTraceLine renders one merged-trace line for a classified frame.
func formatTypedTraceLine(entry *BacktraceEntry, frameType FrameType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d", entry.Filename, entry.Line+1)
	switch frameType {
	case FrameTypeMethod:
		fmt.Fprintf(&b, ":in '%s'", entry.Method)
	case FrameTypeBlock:
		fmt.Fprintf(&b, ":in 'block in %s'", entry.Method)
	case FrameTypeEval:
		fmt.Fprintf(&b, ":in 'eval in %s'", entry.Method)
	case FrameTypeClass:
		fmt.Fprintf(&b, ":in 'class in %s'", entry.Method)
	case FrameTypeRoot:
		fmt.Fprintf(&b, ":in '%s'", TopLevelName)
	}
	return b.String()
}

// CreateBacktraceFromEntries assembles trace lines from a snapshot of the
// running trace, outermost first. Each line pairs an entry's position with
// the next (inner) entry's method name. With cropAtEval set, assembly stops
// at the first eval boundary.
func CreateBacktraceFromEntries(entries []*BacktraceEntry, cropAtEval bool) []string {
	if len(entries) == 0 {
		return nil
	}
	var lines []string
	for i := 0; i+1 < len(entries); i++ {
		entry := entries[i]
		if cropAtEval && entry.Method == EvalMethodName {
			break
		}
		lines = append(lines, formatTraceLine(entry, entries[i+1]))
	}
	return lines
}

// CreateMergedBacktrace builds trace lines from a raw native capture merged
// with an interpreted-trace snapshot. Native frames whose marker matches an
// interpreter entry point consume the innermost unconsumed snapshot entry and
// format according to their frame type; unmatched native frames are dropped.
//
// The purely interpreted path (CreateBacktraceFromEntries) is the normative
// one; this merged form is an optional extension for embeddings that capture
// host stacks.
func CreateMergedBacktrace(entries []*BacktraceEntry, native []NativeFrame) []string {
	lines := []string{}
	idx := len(entries) - 1
	for _, nf := range native {
		frameType, ok := ClassifyFrame(nf.Marker)
		if !ok {
			continue
		}
		if idx < 0 {
			break
		}
		lines = append(lines, formatTypedTraceLine(entries[idx], frameType))
		idx--
	}
	return lines
}
