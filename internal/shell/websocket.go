package shell

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// wsTransport frames messages over a websocket connection to an
// already-running UI shell. Writes are serialized: the websocket package
// supports only one concurrent writer.
type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *wsTransport) WriteMessage(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}

// NewWebSocketBridge dials a UI shell listening at url (ws:// or wss://).
func NewWebSocketBridge(url string, events Events, logger *slog.Logger) (Bridge, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to UI shell: %w", err)
	}

	logger.Info("connected to UI shell", "url", url)
	return &client{
		name:   url,
		conn:   newConn(&wsTransport{conn: wsConn}, events, logger),
		logger: logger,
	}, nil
}
