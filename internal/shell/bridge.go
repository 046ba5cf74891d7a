package shell

import (
	"context"
	"fmt"
	"log/slog"

	"ScreenPilot/internal/capture"
)

// Bridge is the core's view of the UI shell process.
type Bridge interface {
	Initialize(ctx context.Context) error
	ActiveWindow(ctx context.Context) (capture.WindowInfo, error)
	WindowSources(ctx context.Context) ([]capture.Source, error)
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	OpenTextInput(ctx context.Context) error
	CloseTextInput(ctx context.Context) error
	Notify(ctx context.Context, event, text string)
	Close() error
}

// client implements Bridge over a JSON-RPC conn. Both transports (stdio
// subprocess and websocket) produce one of these.
type client struct {
	name   string
	conn   *conn
	logger *slog.Logger
}

func (c *client) Initialize(ctx context.Context) error {
	params := InitializeParams{
		ClientName:    "screenpilot",
		ClientVersion: "1.0.0",
	}

	var result InitializeResult
	if err := c.conn.call(ctx, MethodInitialize, params, &result); err != nil {
		return fmt.Errorf("shell initialize failed: %w", err)
	}

	c.logger.Info("UI shell initialized", "shell", result.ShellName, "version", result.ShellVersion)
	return nil
}

func (c *client) ActiveWindow(ctx context.Context) (capture.WindowInfo, error) {
	var info capture.WindowInfo
	if err := c.conn.call(ctx, MethodActiveWindow, nil, &info); err != nil {
		return capture.WindowInfo{}, fmt.Errorf("active window query failed: %w", err)
	}
	return info, nil
}

func (c *client) WindowSources(ctx context.Context) ([]capture.Source, error) {
	var result WindowSourcesResult
	if err := c.conn.call(ctx, MethodWindowSources, nil, &result); err != nil {
		return nil, fmt.Errorf("window source enumeration failed: %w", err)
	}

	sources := make([]capture.Source, len(result.Sources))
	for i, s := range result.Sources {
		sources[i] = capture.Source{Name: s.Name, PNG: s.PNG}
	}
	return sources, nil
}

func (c *client) StartRecording(ctx context.Context) error {
	return c.conn.call(ctx, MethodStartRecording, nil, nil)
}

func (c *client) StopRecording(ctx context.Context) error {
	return c.conn.call(ctx, MethodStopRecording, nil, nil)
}

func (c *client) OpenTextInput(ctx context.Context) error {
	return c.conn.call(ctx, MethodOpenTextInput, nil, nil)
}

func (c *client) CloseTextInput(ctx context.Context) error {
	return c.conn.call(ctx, MethodCloseTextInput, nil, nil)
}

// Notify pushes a named presentation event. Push-only: a failed push is
// logged and dropped, never escalated to the pipeline.
func (c *client) Notify(ctx context.Context, event, text string) {
	if err := c.conn.call(ctx, MethodNotify, NotifyParams{Event: event, Text: text}, nil); err != nil {
		c.logger.Warn("failed to push presentation event", "event", event, "error", err)
	}
}

func (c *client) Close() error {
	c.logger.Info("closing UI shell bridge", "name", c.name)
	return c.conn.close()
}
