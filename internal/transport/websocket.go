package transport

import (
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/tmi/internal/logger"
)

// WebSocket connects to the chat service's WebSocket endpoint (the service
// speaks the same line protocol over both TCP and WebSocket). Each inbound
// message is delivered as one chunk; messages may carry several lines or a
// fragment of one, which the engine's framing layer sorts out.
type WebSocket struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocket creates a WebSocket transport for a ws:// or wss:// URL.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{url: url}
}

// Connect dials in a background goroutine and, on success, keeps reading
// messages until the connection dies.
func (t *WebSocket) Connect(h Handler) {
	go func() {
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.Dial(t.url, nil)
		if err != nil {
			h.ConnectFailed(err)
			return
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			h.ConnectFailed(net.ErrClosed)
			return
		}
		t.conn = conn
		t.mu.Unlock()

		logger.Debug("websocket connected", "url", t.url)
		h.Connected()
		t.readLoop(conn, h)
	}()
}

func (t *WebSocket) readLoop(conn *websocket.Conn, h Handler) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			closedLocally := t.closed
			t.mu.Unlock()
			if closedLocally || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = nil
			}
			h.Closed(err)
			return
		}
		h.Received(message)
	}
}

// Send writes p as one text message.
func (t *WebSocket) Send(p []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return net.ErrClosed
	}
	return conn.WriteMessage(websocket.TextMessage, p)
}

// Close shuts the connection down. A dial still in flight is abandoned.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
