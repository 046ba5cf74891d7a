package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"ScreenPilot/internal/assistant"
	"ScreenPilot/internal/config"
	"ScreenPilot/internal/player"
	"ScreenPilot/internal/settings"
	"ScreenPilot/internal/shell"
	"ScreenPilot/internal/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	var cfg config.Config
	flag.StringVar(&cfg.ShellCommand, "shell-cmd", "", "UI shell binary to launch (stdio transport)")
	flag.StringVar(&cfg.ShellURL, "shell-url", "", "WebSocket URL of a running UI shell (ws:// or wss://)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.StringVar(&cfg.ChatURL, "chat-url", "", "Override the multimodal chat endpoint")
	flag.StringVar(&cfg.TranscriptionURL, "transcription-url", "", "Override the transcription endpoint")
	flag.StringVar(&cfg.SpeechURL, "speech-url", "", "Override the speech synthesis endpoint")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger, err := telemetry.InitLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get user config dir: %w", err)
	}
	appDir := filepath.Join(configDir, "screenpilot")

	store, err := settings.NewStore(appDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}

	// A .env in the working directory may seed the API key on first run.
	if store.APIKey() == "" {
		if err := godotenv.Load(); err == nil {
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				if err := store.SetAPIKey(key); err != nil {
					logger.Warn("failed to persist API key from .env", "error", err)
				} else {
					logger.Info("API key seeded from .env", "key", settings.MaskKey(key))
				}
			}
		}
	}

	go func() {
		if err := store.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("settings watcher stopped", "error", err)
		}
	}()

	transcripts, err := telemetry.OpenTranscriptDB(filepath.Join(appDir, "transcripts.db"))
	if err != nil {
		return fmt.Errorf("failed to open transcript database: %w", err)
	}
	defer transcripts.Close()

	baseDir := filepath.Join(os.TempDir(), "screenpilot")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}

	// The assistant is created before the bridge so the event handlers can
	// close over it; the bridge field is filled in by wiring below.
	var pilot *assistant.Assistant
	events := shell.Events{
		OnTriggered: func() {
			if pilot != nil {
				go pilot.OnTrigger(ctx)
			}
		},
		OnAudioBuffer: func(data []byte) {
			if pilot != nil {
				go pilot.OnAudioBuffer(ctx, data)
			}
		},
		OnTextSubmitted: func(text string) {
			if pilot != nil {
				go pilot.OnTextSubmitted(ctx, text)
			}
		},
		OnClosed: func() {
			logger.Info("UI shell closed, shutting down")
			cancel()
		},
	}

	var bridge shell.Bridge
	switch {
	case cfg.ShellURL != "":
		bridge, err = shell.NewWebSocketBridge(cfg.ShellURL, events, logger)
	case cfg.ShellCommand != "":
		bridge, err = shell.NewStdioBridge(cfg.ShellCommand, events, logger)
	default:
		return fmt.Errorf("either -shell-cmd or -shell-url is required")
	}
	if err != nil {
		return fmt.Errorf("failed to connect UI shell: %w", err)
	}
	defer bridge.Close()

	pilot = assistant.New(cfg, assistant.Deps{
		Settings:    store,
		Bridge:      bridge,
		Player:      player.New(runtime.GOOS, logger),
		Transcripts: transcripts,
		Logger:      logger,
		Tracer:      tracer,
		Meter:       meter,
		BaseDir:     baseDir,
	})

	if err := bridge.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize UI shell: %w", err)
	}

	logger.Info("screenpilot ready", "input_method", store.InputMethod(), "key", settings.MaskKey(store.APIKey()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}
	return nil
}
