package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `
[project]
name = "widgets"
version = "0.3.0"

[runtime]
poll-mask = 255
frame-stack-size = 64
stack-size = 32

[trace]
store = "traces/widgets.db"
enabled = true
`

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "garnet.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing garnet.toml: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, sampleManifest)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if m.Project.Name != "widgets" || m.Project.Version != "0.3.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.Runtime.PollMask != 255 || m.Runtime.FrameStackSize != 64 || m.Runtime.StackSize != 32 {
		t.Errorf("runtime = %+v", m.Runtime)
	}
	if m.Trace.Store != "traces/widgets.db" || !m.Trace.Enabled {
		t.Errorf("trace = %+v", m.Trace)
	}
	if m.Dir == "" || !filepath.IsAbs(m.Dir) {
		t.Errorf("dir = %q, want an absolute path", m.Dir)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"bare\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if m.Runtime.PollMask != 0 {
		t.Error("an absent poll mask should stay zero and defer to the runtime default")
	}
	want := filepath.Join(m.Dir, "garnet-trace.db")
	if m.Trace.Store != want {
		t.Errorf("trace store = %q, want the default %q", m.Trace.Store, want)
	}
	if m.Trace.Enabled {
		t.Error("tracing should default off")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("loading from a directory without garnet.toml should fail")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[runtime\npoll-mask = oops")

	if _, err := Load(dir); err == nil {
		t.Fatal("malformed toml should fail to parse")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)

	nested := filepath.Join(root, "lib", "widgets")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if m == nil {
		t.Fatal("the manifest two levels up should be found")
	}
	if m.Project.Name != "widgets" {
		t.Errorf("project name = %q", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if m != nil {
		t.Fatal("no manifest anywhere up the tree should yield nil")
	}
}

func TestRuntimeOptions(t *testing.T) {
	m := &Manifest{}
	m.Runtime.PollMask = 255
	m.Runtime.FrameStackSize = 64
	m.Runtime.StackSize = 32

	opts := m.RuntimeOptions()
	if opts.PollMask != 255 || opts.FrameStackSize != 64 || opts.StackSize != 32 {
		t.Errorf("options = %+v", opts)
	}
}
