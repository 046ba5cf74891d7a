package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ScreenPilot/internal/audio"
	"ScreenPilot/internal/capture"
	"ScreenPilot/internal/config"
	"ScreenPilot/internal/player"
	"ScreenPilot/internal/session"
	"ScreenPilot/internal/shell"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Fixed user-visible error strings. Every pipeline failure is terminal for
// its session; there is no retry anywhere.
const (
	CaptureErrorText       = "Unable to capture this window, try another."
	TranscriptionErrorText = "There was an error transcribing your recording"
	VisionErrorText        = "There was an error calling the Vision API"
)

// Settings is the persistent configuration the orchestrator consults:
// the bearer credential and the question input method.
type Settings interface {
	Load() error
	APIKey() string
	InputMethod() string
}

// Transcripts records completed sessions and turns. Persistence failures
// are logged, never escalated.
type Transcripts interface {
	RecordSession(id string, startedAt time.Time, inputMethod, windowTitle, windowOwner string) error
	RecordTurn(sessionID, question, answer string) error
}

// Deps are the collaborators an Assistant is wired with. Zero-value fields
// get production defaults.
type Deps struct {
	Settings    Settings
	Bridge      shell.Bridge
	Transcoder  audio.Transcoder
	Player      player.Player
	Transcripts Transcripts
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Meter       metric.Meter
	BaseDir     string // root for per-session artifact directories
}

// Assistant is the session orchestrator: it owns the recording guard, the
// conversation context, and the current session, and sequences capture,
// input acquisition, transcription, query, synthesis and playback. All
// formerly process-wide state lives on this struct so independent instances
// can run side by side in tests.
type Assistant struct {
	cfg          config.Config
	settings     Settings
	bridge       shell.Bridge
	captures     *capture.Pipeline
	audio        *audio.Pipeline
	conversation *session.Conversation
	transcripts  Transcripts
	player       player.Player
	httpClient   *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	baseDir      string

	chatURL   string
	speechURL string

	mu      sync.Mutex
	guardOn bool
	state   session.State
	current *session.Session
	// pendingAudio is the session whose recording was stopped and whose
	// microphone buffer has not arrived yet. The guard is already released
	// by then: tail work belongs to this session even if a new one starts.
	pendingAudio *session.Session
}

// New creates an orchestrator. The conversation starts with the fixed
// system instruction and grows for the lifetime of the process.
func New(cfg config.Config, deps Deps) *Assistant {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if deps.Transcoder == nil {
		deps.Transcoder = &audio.FFmpegTranscoder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("screenpilot")
	}
	if deps.Meter == nil {
		deps.Meter = otel.Meter("screenpilot")
	}

	chatURL, transcriptionURL, speechURL := cfg.ServiceURLs()

	a := &Assistant{
		cfg:          cfg,
		settings:     deps.Settings,
		bridge:       deps.Bridge,
		conversation: session.NewConversation(config.SystemPrompt),
		transcripts:  deps.Transcripts,
		player:       deps.Player,
		httpClient:   deps.HTTPClient,
		logger:       deps.Logger,
		tracer:       deps.Tracer,
		meter:        deps.Meter,
		baseDir:      deps.BaseDir,
		chatURL:      chatURL,
		speechURL:    speechURL,
		state:        session.StateIdle,
	}
	a.captures = capture.NewPipeline(deps.Bridge, deps.Logger)
	a.audio = audio.NewPipeline(deps.Transcoder, deps.Settings, deps.HTTPClient, transcriptionURL, deps.Logger, deps.Tracer, deps.Meter)
	return a
}

// Conversation exposes the shared context, mainly for inspection.
func (a *Assistant) Conversation() *session.Conversation {
	return a.conversation
}

// State reports the orchestrator's current stage.
func (a *Assistant) State() session.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// GuardHeld reports whether a session currently holds the recording guard.
func (a *Assistant) GuardHeld() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.guardOn
}

// setState applies st only while sess is still the orchestrator's current
// session, so tail work of a finished session cannot clobber the state of
// a newer one.
func (a *Assistant) setState(sess *session.Session, st session.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == sess {
		a.state = st
	}
}

// releaseGuard drops the guard after a terminal pipeline error in sess.
func (a *Assistant) releaseGuard(sess *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.guardOn = false
	if a.current == sess {
		a.state = session.StateIdle
	}
}

// OnTrigger handles the global hotkey. With the guard free it starts a new
// session; with the guard held it is a request to finalize the in-progress
// input, not an abort: work already dispatched keeps running and still
// updates the presentation surface when it resolves.
func (a *Assistant) OnTrigger(ctx context.Context) {
	a.mu.Lock()
	if a.guardOn {
		sess := a.current
		a.guardOn = false
		if sess != nil && sess.InputMethod == config.InputVoice {
			a.pendingAudio = sess
		}
		a.state = session.StateIdle
		a.mu.Unlock()
		a.finishInput(ctx, sess)
		return
	}
	a.guardOn = true
	a.state = session.StateCapturing
	// Any previous session is finished or running tail work with its own
	// reference; it no longer owns the orchestrator state.
	a.current = nil
	a.mu.Unlock()

	a.startSession(ctx)
}

// finishInput signals the shell to hand over whatever input is in flight.
func (a *Assistant) finishInput(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	switch sess.InputMethod {
	case config.InputVoice:
		if err := a.bridge.StopRecording(ctx); err != nil {
			a.logger.Error("failed to stop recording", "session", sess.ID, "error", err)
		}
		a.bridge.Notify(ctx, shell.EventProcessing, "Processing...")
	case config.InputText:
		if err := a.bridge.CloseTextInput(ctx); err != nil {
			a.logger.Warn("failed to close text input", "session", sess.ID, "error", err)
		}
	}
}

// startSession runs the capture stage and begins input acquisition.
func (a *Assistant) startSession(ctx context.Context) {
	win, err := a.bridge.ActiveWindow(ctx)
	if err != nil {
		a.logger.Error("failed to resolve active window", "error", err)
		a.bridge.Notify(ctx, shell.EventError, CaptureErrorText)
		a.releaseGuard(nil)
		return
	}

	method := a.settings.InputMethod()
	sess, err := session.New(a.baseDir, method, session.Window{Title: win.Title, Owner: win.Owner})
	if err != nil {
		a.logger.Error("failed to create session", "error", err)
		a.bridge.Notify(ctx, shell.EventError, CaptureErrorText)
		a.releaseGuard(nil)
		return
	}

	if err := a.captures.CaptureWindow(ctx, win.Title, sess.ScreenshotPath()); err != nil {
		a.logger.Error("capture failed", "session", sess.ID, "title", win.Title, "error", err)
		a.bridge.Notify(ctx, shell.EventError, CaptureErrorText)
		a.releaseGuard(nil)
		if err := sess.Cleanup(); err != nil {
			a.logger.Warn("failed to clean up session dir", "session", sess.ID, "error", err)
		}
		return
	}

	a.mu.Lock()
	a.current = sess
	a.mu.Unlock()

	a.bridge.Notify(ctx, shell.EventWindowSelected, sess.Window.String())
	a.logger.Info("session started", "session", sess.ID, "window", sess.Window.String(), "input", method)

	if a.transcripts != nil {
		if err := a.transcripts.RecordSession(sess.ID, sess.StartedAt, method, win.Title, win.Owner); err != nil {
			a.logger.Warn("failed to persist session", "session", sess.ID, "error", err)
		}
	}

	switch method {
	case config.InputText:
		if err := a.bridge.OpenTextInput(ctx); err != nil {
			a.logger.Error("failed to open text input", "session", sess.ID, "error", err)
			a.releaseGuard(sess)
			return
		}
		a.setState(sess, session.StateAwaitingTextInput)
	default:
		if err := a.bridge.StartRecording(ctx); err != nil {
			a.logger.Error("failed to start recording", "session", sess.ID, "error", err)
			a.bridge.Notify(ctx, shell.EventError, TranscriptionErrorText)
			a.releaseGuard(sess)
			return
		}
		a.bridge.Notify(ctx, shell.EventRecordingStarted, "Recording in progress...")
		a.setState(sess, session.StateRecording)
	}
}

// OnTextSubmitted handles a typed question. Only valid while a session is
// awaiting text input; transcription is bypassed.
func (a *Assistant) OnTextSubmitted(ctx context.Context, text string) {
	a.mu.Lock()
	sess := a.current
	if sess == nil || a.state != session.StateAwaitingTextInput {
		a.mu.Unlock()
		a.logger.Warn("text submitted with no session awaiting input")
		return
	}
	a.guardOn = false
	a.mu.Unlock()

	if err := a.bridge.CloseTextInput(ctx); err != nil {
		a.logger.Warn("failed to close text input", "session", sess.ID, "error", err)
	}
	a.bridge.Notify(ctx, shell.EventQuestionCaptured, text)
	a.answer(ctx, sess, text)
}

// OnAudioBuffer receives the finished microphone recording from the shell
// and runs the voice path to completion. The guard was released at the stop
// trigger; this is the tail work that keeps going.
func (a *Assistant) OnAudioBuffer(ctx context.Context, raw []byte) {
	a.mu.Lock()
	sess := a.pendingAudio
	a.pendingAudio = nil
	a.mu.Unlock()

	if sess == nil {
		a.logger.Warn("audio buffer with no session awaiting it", "bytes", len(raw))
		return
	}

	a.setState(sess, session.StateTranscribing)
	text, err := a.audio.Process(ctx, raw, sess.RawAudioPath(), sess.InputAudioPath())
	if err != nil {
		a.logger.Error("audio pipeline failed", "session", sess.ID, "error", err)
		a.bridge.Notify(ctx, shell.EventError, TranscriptionErrorText)
		a.setState(sess, session.StateIdle)
		return
	}

	a.bridge.Notify(ctx, shell.EventQuestionCaptured, text)
	a.answer(ctx, sess, text)
}

// answer runs the query and synthesis stages for one question.
func (a *Assistant) answer(ctx context.Context, sess *session.Session, question string) {
	a.setState(sess, session.StateQuerying)
	a.bridge.Notify(ctx, shell.EventThinking, "Thinking...")

	reply, err := a.query(ctx, sess, question)
	if err != nil {
		// The turn was not appended to the conversation; the user sees the
		// fixed fallback text instead.
		a.logger.Error("vision query failed", "session", sess.ID, "error", err)
		a.bridge.Notify(ctx, shell.EventAnswerReady, VisionErrorText)
		a.setState(sess, session.StateIdle)
		return
	}

	a.bridge.Notify(ctx, shell.EventAnswerReady, reply)

	if a.transcripts != nil {
		if err := a.transcripts.RecordTurn(sess.ID, question, reply); err != nil {
			a.logger.Warn("failed to persist turn", "session", sess.ID, "error", err)
		}
	}

	a.setState(sess, session.StateSynthesizing)
	a.synthesizeAndPlay(ctx, sess, reply)
	a.setState(sess, session.StateIdle)
}
