package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrWindowNotFound is returned when no capturable surface matches the
// requested window title. The screenshot artifact is left untouched.
var ErrWindowNotFound = errors.New("window not found")

// WindowInfo identifies the currently focused window.
type WindowInfo struct {
	Title  string `json:"title"`
	Owner  string `json:"owner"`
	Bounds Rect   `json:"bounds"`
}

// Rect is a window's on-screen rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Source is one capturable window surface with its PNG thumbnail.
type Source struct {
	Name string
	PNG  []byte
}

// Resolver reports the currently focused window. Implemented by the UI
// shell bridge.
type Resolver interface {
	ActiveWindow(ctx context.Context) (WindowInfo, error)
}

// Sourcer enumerates capturable window surfaces. Implemented by the UI
// shell bridge.
type Sourcer interface {
	WindowSources(ctx context.Context) ([]Source, error)
}

// Pipeline resolves a window title to a screenshot artifact on disk.
type Pipeline struct {
	sources Sourcer
	logger  *slog.Logger
}

// NewPipeline creates a capture pipeline over the given source enumerator.
func NewPipeline(sources Sourcer, logger *slog.Logger) *Pipeline {
	return &Pipeline{sources: sources, logger: logger}
}

// CaptureWindow finds the surface whose name exactly matches title and
// writes its PNG to path. Title strings are not stable identifiers, so a
// renamed or duplicate window can miss or collide; the shell exposes no
// better key. The write completes before returning, so the caller may read
// the artifact immediately. On ErrWindowNotFound nothing is written.
func (p *Pipeline) CaptureWindow(ctx context.Context, title, path string) error {
	sources, err := p.sources.WindowSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate window sources: %w", err)
	}

	for _, src := range sources {
		if src.Name != title {
			continue
		}
		if err := os.WriteFile(path, src.PNG, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		p.logger.Info("captured window", "title", title, "bytes", len(src.PNG))
		return nil
	}

	p.logger.Warn("no capturable surface for window", "title", title)
	return ErrWindowNotFound
}
