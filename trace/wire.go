// Package trace records and persists backtrace snapshots captured from
// thread contexts: a CBOR wire form for export and an SQLite store for
// keeping sessions on disk.
package trace

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/garnet/runtime"
)

// cborEncMode holds CBOR encoding options with canonical mode for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FrameRecord is the wire form of one backtrace entry.
type FrameRecord struct {
	Method string `cbor:"method"`
	File   string `cbor:"file"`
	Line   int    `cbor:"line"`
}

// Session is one recorded backtrace capture: which thread it came from, when,
// and the frames outermost first.
type Session struct {
	ID        string        `cbor:"id"`
	Thread    string        `cbor:"thread"`
	CreatedAt time.Time     `cbor:"created_at"`
	Frames    []FrameRecord `cbor:"frames"`
}

// Capture snapshots a context's running backtrace into a session. The
// snapshot is independent of the live stacks.
func Capture(tc *runtime.ThreadContext, id string) *Session {
	entries := tc.CreateBacktraceSnapshot()
	frames := make([]FrameRecord, len(entries))
	for i, e := range entries {
		frames[i] = FrameRecord{Method: e.Method, File: e.Filename, Line: e.Line}
	}

	thread := ""
	if t := tc.Thread(); t != nil {
		thread = t.Name()
	}

	return &Session{
		ID:        id,
		Thread:    thread,
		CreatedAt: time.Now().UTC(),
		Frames:    frames,
	}
}

// Lines assembles the session's frames into trace lines, outermost first.
func (s *Session) Lines(cropAtEval bool) []string {
	entries := make([]*runtime.BacktraceEntry, len(s.Frames))
	for i, f := range s.Frames {
		entries[i] = &runtime.BacktraceEntry{Method: f.Method, Filename: f.File, Line: f.Line}
	}
	return runtime.CreateBacktraceFromEntries(entries, cropAtEval)
}

// MarshalSession serializes a Session to CBOR bytes.
func MarshalSession(s *Session) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSession deserializes a Session from CBOR bytes.
func UnmarshalSession(data []byte) (*Session, error) {
	var s Session
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("trace: unmarshal session: %w", err)
	}
	return &s, nil
}

// MarshalFrames serializes a frame list to CBOR bytes.
func MarshalFrames(frames []FrameRecord) ([]byte, error) {
	return cborEncMode.Marshal(frames)
}

// UnmarshalFrames deserializes a frame list from CBOR bytes.
func UnmarshalFrames(data []byte) ([]FrameRecord, error) {
	var frames []FrameRecord
	if err := cbor.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("trace: unmarshal frames: %w", err)
	}
	return frames, nil
}
