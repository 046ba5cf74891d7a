package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State identifies where a session is in the capture-to-answer cycle.
type State string

const (
	StateIdle              State = "idle"
	StateCapturing         State = "capturing"
	StateRecording         State = "recording"
	StateAwaitingTextInput State = "awaiting_text_input"
	StateTranscribing      State = "transcribing"
	StateQuerying          State = "querying"
	StateSynthesizing      State = "synthesizing"
	StatePlaying           State = "playing"
)

// Window is the identity of the application window a session is about.
type Window struct {
	Title string `json:"title"`
	Owner string `json:"owner"`
}

func (w Window) String() string {
	return fmt.Sprintf("%s: %s", w.Owner, w.Title)
}

// Session is one hotkey-triggered capture-to-answer cycle. Each session gets
// its own temp directory so artifacts from overlapping tail work cannot
// clobber each other.
type Session struct {
	ID          string
	StartedAt   time.Time
	InputMethod string
	Window      Window

	dir string
}

// New creates a session with a fresh artifact directory under baseDir.
func New(baseDir, inputMethod string, window Window) (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Session{
		ID:          id,
		StartedAt:   time.Now(),
		InputMethod: inputMethod,
		Window:      window,
		dir:         dir,
	}, nil
}

// ScreenshotPath is where the capture pipeline writes this session's PNG.
func (s *Session) ScreenshotPath() string {
	return filepath.Join(s.dir, "screenshot.png")
}

// RawAudioPath is the transient microphone buffer file.
func (s *Session) RawAudioPath() string {
	return filepath.Join(s.dir, "mic-audio.raw")
}

// InputAudioPath is the transcoded MP3 sent for transcription.
func (s *Session) InputAudioPath() string {
	return filepath.Join(s.dir, "audio-input.mp3")
}

// AnswerAudioPath is where synthesized speech is streamed.
func (s *Session) AnswerAudioPath() string {
	return filepath.Join(s.dir, "tts-response.mp3")
}

// Cleanup removes the session's artifact directory. Best-effort; callers log
// the error and move on.
func (s *Session) Cleanup() error {
	return os.RemoveAll(s.dir)
}
