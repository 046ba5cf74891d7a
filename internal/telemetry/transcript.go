package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TranscriptDB persists completed question/answer turns so past
// conversations survive restarts. Writes are best-effort; the pipelines log
// and continue on failure.
type TranscriptDB struct {
	db *sql.DB
}

// OpenTranscriptDB opens (and if needed creates) the transcript database at
// path.
func OpenTranscriptDB(path string) (*TranscriptDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}

	createSessions := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		input_method TEXT,
		window_title TEXT,
		window_owner TEXT
	);`

	createTurns := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		question TEXT,
		answer TEXT,
		created_at DATETIME,
		FOREIGN KEY(session_id) REFERENCES sessions(id)
	);`

	if _, err := db.Exec(createSessions); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	if _, err := db.Exec(createTurns); err != nil {
		return nil, fmt.Errorf("failed to create turns table: %w", err)
	}

	return &TranscriptDB{db: db}, nil
}

// RecordSession inserts or refreshes a session row.
func (t *TranscriptDB) RecordSession(id string, startedAt time.Time, inputMethod, windowTitle, windowOwner string) error {
	_, err := t.db.Exec(
		"INSERT OR REPLACE INTO sessions (id, started_at, input_method, window_title, window_owner) VALUES (?, ?, ?, ?, ?)",
		id, startedAt, inputMethod, windowTitle, windowOwner,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordTurn stores one completed question/answer pair.
func (t *TranscriptDB) RecordTurn(sessionID, question, answer string) error {
	_, err := t.db.Exec(
		"INSERT INTO turns (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)",
		sessionID, question, answer, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (t *TranscriptDB) Close() error {
	return t.db.Close()
}
