package session

import (
	"os"
	"testing"
)

func TestSessionArtifactPaths(t *testing.T) {
	base := t.TempDir()

	s, err := New(base, "voice", Window{Title: "Notes", Owner: "Notes"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if s.ID == "" {
		t.Error("session ID is empty")
	}
	if got := s.Window.String(); got != "Notes: Notes" {
		t.Errorf("Window.String() = %q", got)
	}

	// All artifact paths live inside the session's own directory.
	paths := []string{s.ScreenshotPath(), s.RawAudioPath(), s.InputAudioPath(), s.AnswerAudioPath()}
	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			t.Errorf("duplicate artifact path %q", p)
		}
		seen[p] = true
	}
}

func TestSessionsDoNotShareArtifacts(t *testing.T) {
	base := t.TempDir()

	a, err := New(base, "voice", Window{Title: "A", Owner: "A"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	b, err := New(base, "voice", Window{Title: "B", Owner: "B"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if a.ScreenshotPath() == b.ScreenshotPath() {
		t.Error("two sessions share a screenshot path")
	}

	// Writing one session's artifact must not disturb the other's.
	if err := os.WriteFile(a.ScreenshotPath(), []byte("png-a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(b.ScreenshotPath(), []byte("png-b"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(a.ScreenshotPath())
	if err != nil || string(data) != "png-a" {
		t.Errorf("session A artifact clobbered: %q, %v", data, err)
	}
}

func TestSessionCleanup(t *testing.T) {
	s, err := New(t.TempDir(), "text", Window{Title: "X", Owner: "X"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := os.WriteFile(s.ScreenshotPath(), []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if _, err := os.Stat(s.ScreenshotPath()); !os.IsNotExist(err) {
		t.Error("screenshot artifact survived Cleanup()")
	}
}
