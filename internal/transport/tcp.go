package transport

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/lawnchairsociety/tmi/internal/logger"
)

// readBufferSize is the size of the inbound read buffer. Chat lines are
// short; 4 KiB comfortably holds many of them per read.
const readBufferSize = 4096

// dialTimeout bounds how long a dial may take before it counts as failed.
const dialTimeout = 10 * time.Second

// TCP connects to the chat server over plain TCP or TLS.
type TCP struct {
	addr    string
	tlsConf *tls.Config // nil for a plaintext connection

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewTCP creates a TCP transport for the given host:port address. Pass a
// non-nil tlsConf to wrap the connection in TLS; an empty &tls.Config{} is
// enough for the public chat endpoints.
func NewTCP(addr string, tlsConf *tls.Config) *TCP {
	return &TCP{addr: addr, tlsConf: tlsConf}
}

// Connect dials in a background goroutine and, on success, keeps reading
// until the connection dies.
func (t *TCP) Connect(h Handler) {
	go func() {
		dialer := net.Dialer{Timeout: dialTimeout}

		var conn net.Conn
		var err error
		if t.tlsConf != nil {
			conn, err = tls.DialWithDialer(&dialer, "tcp", t.addr, t.tlsConf)
		} else {
			conn, err = dialer.Dial("tcp", t.addr)
		}
		if err != nil {
			h.ConnectFailed(err)
			return
		}

		t.mu.Lock()
		if t.closed {
			// Close raced the dial; the caller no longer wants this link.
			t.mu.Unlock()
			conn.Close()
			h.ConnectFailed(net.ErrClosed)
			return
		}
		t.conn = conn
		t.mu.Unlock()

		logger.Debug("tcp connected", "addr", t.addr, "tls", t.tlsConf != nil)
		h.Connected()
		t.readLoop(conn, h)
	}()
}

// readLoop delivers inbound chunks until the connection errors out, then
// reports Closed exactly once.
func (t *TCP) readLoop(conn net.Conn, h Handler) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.Received(chunk)
		}
		if err != nil {
			t.mu.Lock()
			closedLocally := t.closed
			t.mu.Unlock()
			if closedLocally {
				// Local Close interrupted the read; not a failure.
				err = nil
			}
			h.Closed(err)
			return
		}
	}
}

// Send writes p in full to the connection.
func (t *TCP) Send(p []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return net.ErrClosed
	}
	_, err := conn.Write(p)
	return err
}

// Close shuts the connection down. A dial still in flight is abandoned.
func (t *TCP) Close() error {
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
