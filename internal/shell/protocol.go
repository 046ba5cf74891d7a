package shell

import "encoding/json"

// JSON-RPC 2.0 framing for the core <-> UI shell bridge. The shell owns the
// OS surfaces (hotkey registration, window enumeration, microphone,
// on-screen panels); the core drives it with requests and receives
// notifications back, mirroring a main/renderer process split.

// Request represents a JSON-RPC 2.0 request or, when ID is zero and the
// message originates from the shell, a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"` // Always "2.0"
	ID      int             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"` // Always "2.0"
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Methods the core calls on the shell.
const (
	MethodInitialize     = "ui/initialize"
	MethodActiveWindow   = "window/active"
	MethodWindowSources  = "window/sources"
	MethodStartRecording = "recording/start"
	MethodStopRecording  = "recording/stop"
	MethodOpenTextInput  = "text/open"
	MethodCloseTextInput = "text/close"
	MethodNotify         = "ui/notify"
)

// Notifications the shell sends to the core.
const (
	NotifyTriggered     = "hotkey/triggered"
	NotifyAudioBuffer   = "audio/buffer"
	NotifyTextSubmitted = "text/submitted"
	NotifyClosed        = "shell/closed"
)

// Presentation event names pushed with MethodNotify.
const (
	EventWindowSelected   = "window-selected"
	EventRecordingStarted = "recording-started"
	EventProcessing       = "processing"
	EventQuestionCaptured = "question-captured"
	EventThinking         = "thinking"
	EventAnswerReady      = "answer-ready"
	EventError            = "error-text"
)

// InitializeParams identifies the core to the shell.
type InitializeParams struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

// InitializeResult identifies the shell back.
type InitializeResult struct {
	ShellName    string `json:"shellName"`
	ShellVersion string `json:"shellVersion"`
}

// NotifyParams carries a named presentation event.
type NotifyParams struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

// SourceInfo is one capturable window surface; PNG is base64 on the wire.
type SourceInfo struct {
	Name string `json:"name"`
	PNG  []byte `json:"png"`
}

// WindowSourcesResult lists capturable surfaces.
type WindowSourcesResult struct {
	Sources []SourceInfo `json:"sources"`
}

// AudioBufferParams carries the finished microphone recording.
type AudioBufferParams struct {
	Data []byte `json:"data"`
}

// TextSubmittedParams carries a typed question.
type TextSubmittedParams struct {
	Text string `json:"text"`
}
