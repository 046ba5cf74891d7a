package shell

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// memTransport is an in-process stand-in for the stdio/websocket framing.
type memTransport struct {
	fromCore chan []byte
	toCore   chan []byte

	once   sync.Once
	closed chan struct{}
}

func newMemTransport() *memTransport {
	return &memTransport{
		fromCore: make(chan []byte, 16),
		toCore:   make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (t *memTransport) WriteMessage(data []byte) error {
	select {
	case t.fromCore <- data:
		return nil
	case <-t.closed:
		return errors.New("transport closed")
	}
}

func (t *memTransport) ReadMessage() ([]byte, error) {
	select {
	case data := <-t.toCore:
		return data, nil
	case <-t.closed:
		return nil, io.EOF
	}
}

func (t *memTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// respondLoop plays the shell side: answers every request with the given
// result payload.
func respondLoop(t *memTransport, result interface{}) {
	for {
		select {
		case data := <-t.fromCore:
			var req Request
			if err := json.Unmarshal(data, &req); err != nil {
				continue
			}
			raw, _ := json.Marshal(result)
			resp, _ := json.Marshal(Response{JSONRPC: "2.0", ID: req.ID, Result: raw})
			t.toCore <- resp
		case <-t.closed:
			return
		}
	}
}

func TestCallRoutesResponseByID(t *testing.T) {
	tr := newMemTransport()
	defer tr.Close()
	go respondLoop(tr, InitializeResult{ShellName: "fake-shell", ShellVersion: "0.1"})

	c := newConn(tr, Events{}, testLogger())

	var result InitializeResult
	if err := c.call(context.Background(), MethodInitialize, InitializeParams{ClientName: "screenpilot"}, &result); err != nil {
		t.Fatalf("call() error: %v", err)
	}
	if result.ShellName != "fake-shell" {
		t.Errorf("result = %+v", result)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	tr := newMemTransport()
	defer tr.Close()

	go func() {
		data := <-tr.fromCore
		var req Request
		json.Unmarshal(data, &req)
		resp, _ := json.Marshal(Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32000, Message: "window gone"},
		})
		tr.toCore <- resp
	}()

	c := newConn(tr, Events{}, testLogger())
	err := c.call(context.Background(), MethodActiveWindow, nil, nil)
	if err == nil {
		t.Fatal("call() should fail on an RPC error")
	}
}

func TestCallCancelledByContext(t *testing.T) {
	tr := newMemTransport()
	defer tr.Close()
	// No responder: the call can only end via ctx.

	c := newConn(tr, Events{}, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.call(ctx, MethodStartRecording, nil, nil)
	if err == nil {
		t.Fatal("call() should fail when the context expires")
	}
}

func TestNotificationDispatch(t *testing.T) {
	tr := newMemTransport()
	defer tr.Close()

	triggered := make(chan struct{}, 1)
	texts := make(chan string, 1)
	buffers := make(chan []byte, 1)

	newConn(tr, Events{
		OnTriggered:     func() { triggered <- struct{}{} },
		OnTextSubmitted: func(text string) { texts <- text },
		OnAudioBuffer:   func(data []byte) { buffers <- data },
	}, testLogger())

	send := func(method string, params interface{}) {
		raw, _ := json.Marshal(params)
		msg, _ := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: raw})
		tr.toCore <- msg
	}

	send(NotifyTriggered, nil)
	send(NotifyTextSubmitted, TextSubmittedParams{Text: "hello"})
	send(NotifyAudioBuffer, AudioBufferParams{Data: []byte{1, 2, 3}})

	waitFor := func(name string, ok func() bool) {
		deadline := time.After(time.Second)
		for {
			if ok() {
				return
			}
			select {
			case <-deadline:
				t.Fatalf("timed out waiting for %s", name)
			case <-time.After(time.Millisecond):
			}
		}
	}

	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("trigger notification not dispatched")
	}
	waitFor("text", func() bool { return len(texts) == 1 })
	if got := <-texts; got != "hello" {
		t.Errorf("text = %q", got)
	}
	waitFor("audio", func() bool { return len(buffers) == 1 })
	if got := <-buffers; len(got) != 3 {
		t.Errorf("buffer = %v", got)
	}
}

func TestCloseFailsPendingCalls(t *testing.T) {
	tr := newMemTransport()
	c := newConn(tr, Events{}, testLogger())

	done := make(chan error, 1)
	go func() {
		done <- c.call(context.Background(), MethodStopRecording, nil, nil)
	}()

	// Give the call a moment to register, then tear the transport down.
	time.Sleep(10 * time.Millisecond)
	tr.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("pending call should fail when the connection closes")
		}
	case <-time.After(time.Second):
		t.Fatal("pending call never returned after close")
	}
}
