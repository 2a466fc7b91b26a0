// Package manifest handles garnet.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/garnet/runtime"
)

// Manifest represents a garnet.toml configuration.
type Manifest struct {
	Project Project       `toml:"project"`
	Runtime RuntimeConfig `toml:"runtime"`
	Trace   TraceConfig   `toml:"trace"`

	// Dir is the directory containing the garnet.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// RuntimeConfig tunes per-thread execution contexts.
type RuntimeConfig struct {
	// PollMask controls the thread-event checkpoint: a poll happens every
	// mask+1 dispatches. Zero selects the default (0xFFF).
	PollMask int `toml:"poll-mask"`

	// FrameStackSize is the initial call-frame stack capacity.
	FrameStackSize int `toml:"frame-stack-size"`

	// StackSize is the initial capacity of the scope and class-nesting stacks.
	StackSize int `toml:"stack-size"`
}

// TraceConfig configures backtrace recording.
type TraceConfig struct {
	// Store is the path of the SQLite trace store.
	Store string `toml:"store"`

	// Enabled turns trace recording on.
	Enabled bool `toml:"enabled"`
}

// Load parses a garnet.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "garnet.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Trace.Store == "" {
		m.Trace.Store = filepath.Join(m.Dir, "garnet-trace.db")
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a garnet.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "garnet.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// RuntimeOptions converts the runtime section to context options. Zero fields
// fall through to the runtime package defaults.
func (m *Manifest) RuntimeOptions() runtime.Options {
	return runtime.Options{
		PollMask:       m.Runtime.PollMask,
		FrameStackSize: m.Runtime.FrameStackSize,
		StackSize:      m.Runtime.StackSize,
	}
}
