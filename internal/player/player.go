package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Player launches platform audio playback for a file on disk. Playback is
// best-effort: the orchestrator fires it and forgets, logging failures.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer invokes an external player binary.
type CommandPlayer struct {
	name string
	args []string
}

// Play runs the player process and waits for it to exit.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string{}, p.args...), path)
	cmd := exec.CommandContext(ctx, p.name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback command %q failed: %w", p.name, err)
	}
	return nil
}

// NopPlayer is used on platforms with no known player command.
type NopPlayer struct {
	Logger *slog.Logger
}

func (p *NopPlayer) Play(ctx context.Context, path string) error {
	if p.Logger != nil {
		p.Logger.Warn("audio playback unsupported on this platform", "path", path)
	}
	return nil
}

// New selects the playback capability for the host OS once at startup.
// goos is runtime.GOOS in production; tests pass it explicitly.
func New(goos string, logger *slog.Logger) Player {
	switch goos {
	case "darwin":
		return &CommandPlayer{name: "afplay"}
	case "windows":
		return &CommandPlayer{name: "cmd", args: []string{"/c", "start"}}
	case "linux":
		return &CommandPlayer{name: "aplay"}
	default:
		return &NopPlayer{Logger: logger}
	}
}
