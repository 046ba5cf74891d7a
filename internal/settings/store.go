package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ScreenPilot/internal/config"

	"github.com/fsnotify/fsnotify"
)

// Values are the user's persistent preferences.
type Values struct {
	UserAPIKey  string `json:"userApiKey"`
	InputMethod string `json:"inputMethod"`
}

// Store persists settings as JSON in the user config directory and serves
// them to the rest of the app. Reads always reflect the file on disk at the
// last Load; callers that need mid-run changes either call Load again
// (the audio pipeline does, once per cycle) or rely on Watch.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	values Values
}

// NewStore creates a store rooted at dir (typically os.UserConfigDir()
// + "/screenpilot") and loads any existing settings file.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings dir: %w", err)
	}

	s := &Store{
		path:   filepath.Join(dir, "settings.json"),
		logger: logger,
		values: Values{InputMethod: config.InputVoice},
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the absolute path of the settings file.
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the settings file. A missing file leaves defaults in place.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var v Values
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse settings json: %w", err)
	}
	if v.InputMethod == "" {
		v.InputMethod = config.InputVoice
	}

	s.mu.Lock()
	s.values = v
	s.mu.Unlock()
	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	// 0600: the file holds the API key.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// APIKey returns the stored credential in cleartext. Never log this; use
// MaskKey for anything user- or log-facing.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.UserAPIKey
}

// SetAPIKey stores the credential and persists immediately.
func (s *Store) SetAPIKey(key string) error {
	s.mu.Lock()
	s.values.UserAPIKey = key
	s.mu.Unlock()
	return s.save()
}

// InputMethod returns the configured question input method (voice or text).
func (s *Store) InputMethod() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.InputMethod
}

// SetInputMethod stores the input method and persists immediately.
func (s *Store) SetInputMethod(method string) error {
	if method != config.InputVoice && method != config.InputText {
		return fmt.Errorf("unknown input method: %s", method)
	}
	s.mu.Lock()
	s.values.InputMethod = method
	s.mu.Unlock()
	return s.save()
}

// Watch reloads the store whenever the settings file changes on disk, so
// edits made outside the app take effect mid-run. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch settings dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Load(); err != nil {
				s.logger.Warn("failed to reload settings", "error", err)
				continue
			}
			s.logger.Info("settings reloaded", "input_method", s.InputMethod())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "error", err)
		}
	}
}

// MaskKey redacts a credential for display: all but the last four characters
// become asterisks. Keys of four characters or fewer are returned unchanged.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return key
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
