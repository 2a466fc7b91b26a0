package trace

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	want := sampleSession()

	if err := store.SaveSession(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.LoadSession(want.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ID != want.ID || got.Thread != want.Thread {
		t.Errorf("identity = %q/%q, want %q/%q", got.ID, got.Thread, want.ID, want.Thread)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if len(got.Frames) != len(want.Frames) || got.Frames[1] != want.Frames[1] {
		t.Errorf("frames = %+v, want %+v", got.Frames, want.Frames)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	store := openTestStore(t)

	first := sampleSession()
	if err := store.SaveSession(first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := sampleSession()
	second.Thread = "worker-1"
	second.Frames = second.Frames[:1]
	if err := store.SaveSession(second); err != nil {
		t.Fatalf("replacing save failed: %v", err)
	}

	got, err := store.LoadSession(first.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Thread != "worker-1" || len(got.Frames) != 1 {
		t.Error("saving the same id should replace the stored session")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.LoadSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreListSessions(t *testing.T) {
	store := openTestStore(t)

	older := sampleSession()
	older.ID = "older"
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := sampleSession()
	newer.ID = "newer"
	newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, s := range []*Session{older, newer} {
		if err := store.SaveSession(s); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	infos, err := store.ListSessions()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(infos))
	}
	if infos[0].ID != "newer" || infos[1].ID != "older" {
		t.Error("listing should be newest first")
	}
	if infos[0].Frames != 3 {
		t.Errorf("frame count = %d, want 3", infos[0].Frames)
	}
}

func TestStoreDeleteSession(t *testing.T) {
	store := openTestStore(t)

	s := sampleSession()
	if err := store.SaveSession(s); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.DeleteSession(s.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.LoadSession(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("deleted session should not load")
	}

	// Deleting a missing id is not an error.
	if err := store.DeleteSession("nope"); err != nil {
		t.Fatalf("deleting a missing session: %v", err)
	}
}
