package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSessionNotFound indicates the requested session doesn't exist.
var ErrSessionNotFound = errors.New("trace session not found")

// Store handles SQLite storage for recorded trace sessions.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// SessionInfo is a store listing entry.
type SessionInfo struct {
	ID        string
	Thread    string
	CreatedAt time.Time
	Frames    int
}

// Open opens (creating if needed) a trace store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace store: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		thread TEXT NOT NULL,
		created_at TEXT NOT NULL,
		frames BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSession persists a session, replacing any prior one with the same id.
func (s *Store) SaveSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames, err := MarshalFrames(session.Frames)
	if err != nil {
		return fmt.Errorf("encoding session frames: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO sessions (id, thread, created_at, frames) VALUES (?, ?, ?, ?)",
		session.ID, session.Thread, session.CreatedAt.UTC().Format(time.RFC3339Nano), frames,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	return nil
}

// LoadSession retrieves a session by id.
func (s *Store) LoadSession(id string) (*Session, error) {
	var thread, createdAt string
	var frames []byte
	err := s.db.QueryRow(
		"SELECT thread, created_at, frames FROM sessions WHERE id = ?", id,
	).Scan(&thread, &createdAt, &frames)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing session timestamp: %w", err)
	}

	records, err := UnmarshalFrames(frames)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		Thread:    thread,
		CreatedAt: created,
		Frames:    records,
	}, nil
}

// ListSessions returns summaries for all stored sessions, newest first.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	rows, err := s.db.Query("SELECT id, thread, created_at, frames FROM sessions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var createdAt string
		var frames []byte
		if err := rows.Scan(&info.ID, &info.Thread, &createdAt, &frames); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing session timestamp: %w", err)
		}
		records, err := UnmarshalFrames(frames)
		if err != nil {
			return nil, err
		}
		info.Frames = len(records)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteSession removes a session from the store.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
