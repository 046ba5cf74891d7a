package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// transport moves framed JSON messages to and from the shell process.
type transport interface {
	WriteMessage(data []byte) error
	ReadMessage() ([]byte, error)
	Close() error
}

// Events are the shell-originated notifications the core reacts to.
// Handlers run on the read pump goroutine; anything slow must hop to its
// own goroutine.
type Events struct {
	OnTriggered     func()
	OnAudioBuffer   func(data []byte)
	OnTextSubmitted func(text string)
	OnClosed        func()
}

// conn runs the JSON-RPC exchange over a transport: a single read pump
// routes responses to pending calls by request ID and dispatches
// notifications to the event handlers, so concurrent requests and
// unsolicited shell messages share one connection safely.
type conn struct {
	tr     transport
	events Events
	logger *slog.Logger

	reqID int32

	mu      sync.Mutex
	pending map[int]chan *Response
	closed  bool
}

func newConn(tr transport, events Events, logger *slog.Logger) *conn {
	c := &conn{
		tr:      tr,
		events:  events,
		logger:  logger,
		pending: make(map[int]chan *Response),
	}
	go c.readPump()
	return c
}

// call sends a request and blocks until the matching response arrives or
// ctx is done.
func (c *conn) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("shell connection is closed")
	}
	reqID := int(atomic.AddInt32(&c.reqID, 1))
	ch := make(chan *Response, 1)
	c.pending[reqID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}()

	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		rawParams = data
	}

	reqJSON, err := json.Marshal(Request{JSONRPC: "2.0", ID: reqID, Method: method, Params: rawParams})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := c.tr.WriteMessage(reqJSON); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shell call %s cancelled: %w", method, ctx.Err())
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("shell connection closed during %s", method)
		}
		if resp.Error != nil {
			return fmt.Errorf("shell error %d on %s: %s", resp.Error.Code, method, resp.Error.Message)
		}
		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *conn) readPump() {
	for {
		data, err := c.tr.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}

		// Responses carry a result or error; notifications carry a method.
		var probe struct {
			ID     int             `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			c.logger.Warn("unparseable message from shell", "error", err)
			continue
		}

		if probe.Method != "" {
			c.dispatch(probe.Method, probe.Params)
			continue
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn("unparseable response from shell", "error", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			c.logger.Warn("response for unknown request", "id", resp.ID)
			continue
		}
		ch <- &resp
	}
}

func (c *conn) dispatch(method string, params json.RawMessage) {
	switch method {
	case NotifyTriggered:
		if c.events.OnTriggered != nil {
			c.events.OnTriggered()
		}
	case NotifyAudioBuffer:
		var p AudioBufferParams
		if err := json.Unmarshal(params, &p); err != nil {
			c.logger.Warn("bad audio buffer notification", "error", err)
			return
		}
		if c.events.OnAudioBuffer != nil {
			c.events.OnAudioBuffer(p.Data)
		}
	case NotifyTextSubmitted:
		var p TextSubmittedParams
		if err := json.Unmarshal(params, &p); err != nil {
			c.logger.Warn("bad text submission notification", "error", err)
			return
		}
		if c.events.OnTextSubmitted != nil {
			c.events.OnTextSubmitted(p.Text)
		}
	case NotifyClosed:
		if c.events.OnClosed != nil {
			c.events.OnClosed()
		}
	default:
		c.logger.Warn("unknown notification from shell", "method", method)
	}
}

// shutdown fails all pending calls and marks the connection closed.
func (c *conn) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if cause != nil {
		c.logger.Info("shell connection closed", "cause", cause)
	}
}

func (c *conn) close() error {
	c.shutdown(nil)
	return c.tr.Close()
}
