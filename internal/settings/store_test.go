package settings

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"ScreenPilot/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: ""},
		{name: "short key unchanged", key: "abcd", want: "abcd"},
		{name: "three chars unchanged", key: "abc", want: "abc"},
		{name: "five chars", key: "abcde", want: "*bcde"},
		{name: "typical key", key: "sk-test12345678", want: "***********5678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskKey(tt.key); got != tt.want {
				t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestStoreDefaults(t *testing.T) {
	store, err := NewStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	if got := store.InputMethod(); got != config.InputVoice {
		t.Errorf("InputMethod() = %q, want %q", got, config.InputVoice)
	}
	if got := store.APIKey(); got != "" {
		t.Errorf("APIKey() = %q, want empty", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, discardLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if err := store.SetAPIKey("sk-secret-key-1234"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if err := store.SetInputMethod(config.InputText); err != nil {
		t.Fatalf("SetInputMethod() error: %v", err)
	}

	// A second store over the same directory sees the persisted values.
	reopened, err := NewStore(dir, discardLogger())
	if err != nil {
		t.Fatalf("NewStore() reopen error: %v", err)
	}
	if got := reopened.APIKey(); got != "sk-secret-key-1234" {
		t.Errorf("APIKey() = %q after reopen", got)
	}
	if got := reopened.InputMethod(); got != config.InputText {
		t.Errorf("InputMethod() = %q after reopen, want %q", got, config.InputText)
	}
}

func TestStoreRejectsUnknownInputMethod(t *testing.T) {
	store, err := NewStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if err := store.SetInputMethod("telepathy"); err == nil {
		t.Error("SetInputMethod(telepathy) should fail")
	}
}

func TestStoreLoadPicksUpExternalEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, discardLogger())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	edited := `{"userApiKey":"sk-edited-9999","inputMethod":"text"}`
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(edited), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if err := store.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := store.APIKey(); got != "sk-edited-9999" {
		t.Errorf("APIKey() = %q after external edit", got)
	}
}
