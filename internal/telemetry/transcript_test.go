package telemetry

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTranscriptRoundTrip(t *testing.T) {
	db, err := OpenTranscriptDB(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("OpenTranscriptDB() error: %v", err)
	}
	defer db.Close()

	if err := db.RecordSession("sess-1", time.Now(), "text", "Notes", "Notes"); err != nil {
		t.Fatalf("RecordSession() error: %v", err)
	}
	if err := db.RecordTurn("sess-1", "What does this say?", "It is empty."); err != nil {
		t.Fatalf("RecordTurn() error: %v", err)
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM turns WHERE session_id = ?", "sess-1").Scan(&count); err != nil {
		t.Fatalf("query turns: %v", err)
	}
	if count != 1 {
		t.Errorf("turn count = %d, want 1", count)
	}

	// Re-recording a session refreshes rather than duplicates it.
	if err := db.RecordSession("sess-1", time.Now(), "voice", "Notes", "Notes"); err != nil {
		t.Fatalf("RecordSession() second call error: %v", err)
	}
	if err := db.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("query sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("session count = %d, want 1", count)
	}
}
