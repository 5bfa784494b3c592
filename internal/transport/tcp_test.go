package transport

import (
	"io"
	"net"
	"testing"
	"time"
)

// recordingHandler collects transport events on channels so tests can wait
// for them without polling.
type recordingHandler struct {
	connected chan struct{}
	failed    chan error
	chunks    chan []byte
	closed    chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		connected: make(chan struct{}, 1),
		failed:    make(chan error, 1),
		chunks:    make(chan []byte, 16),
		closed:    make(chan error, 1),
	}
}

func (h *recordingHandler) Connected()              { h.connected <- struct{}{} }
func (h *recordingHandler) ConnectFailed(err error) { h.failed <- err }
func (h *recordingHandler) Received(chunk []byte)   { h.chunks <- chunk }
func (h *recordingHandler) Closed(err error)        { h.closed <- err }

const eventTimeout = 5 * time.Second

func TestTCP_ConnectSendReceive(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	serverConn := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		serverConn <- conn
	}()

	tr := NewTCP(listener.Addr().String(), nil)
	h := newRecordingHandler()
	tr.Connect(h)
	defer tr.Close()

	select {
	case <-h.connected:
	case err := <-h.failed:
		t.Fatalf("connect failed: %v", err)
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for Connected")
	}

	var server net.Conn
	select {
	case server = <-serverConn:
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for server side of the connection")
	}
	defer server.Close()

	// Client -> server.
	if err := tr.Send([]byte("NICK justinfan5123\r\n")); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	sent := "NICK justinfan5123\r\n"
	buf := make([]byte, len(sent))
	server.SetReadDeadline(time.Now().Add(eventTimeout))
	if _, err := io.ReadFull(server, buf); err != nil {
		t.Fatalf("server read failed: %v", err)
	}
	if string(buf) != sent {
		t.Errorf("server received %q, want %q", buf, sent)
	}

	// Server -> client.
	if _, err := server.Write([]byte("PING :tmi.twitch.tv\r\n")); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
	// TCP may fragment the write; accumulate until the full line arrived.
	want := "PING :tmi.twitch.tv\r\n"
	var received []byte
	for len(received) < len(want) {
		select {
		case chunk := <-h.chunks:
			received = append(received, chunk...)
		case <-time.After(eventTimeout):
			t.Fatalf("timed out waiting for inbound data, got %q so far", received)
		}
	}
	if string(received) != want {
		t.Errorf("received %q, want %q", received, want)
	}
}

func TestTCP_RemoteCloseReportsClosed(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	tr := NewTCP(listener.Addr().String(), nil)
	h := newRecordingHandler()
	tr.Connect(h)
	defer tr.Close()

	select {
	case <-h.connected:
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for Connected")
	}

	select {
	case err := <-h.closed:
		if err == nil {
			t.Error("remote close should carry a non-nil error")
		}
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for Closed")
	}
}

func TestTCP_ConnectFailed(t *testing.T) {
	// Grab a port that nothing is listening on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	tr := NewTCP(addr, nil)
	h := newRecordingHandler()
	tr.Connect(h)

	select {
	case err := <-h.failed:
		if err == nil {
			t.Error("ConnectFailed should carry a non-nil error")
		}
	case <-h.connected:
		t.Fatal("dial to a closed port should not succeed")
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for ConnectFailed")
	}
}

func TestTCP_LocalCloseSuppressesError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		// Hold the connection open until the test finishes.
		buf := make([]byte, 1)
		conn.Read(buf)
		conn.Close()
	}()

	tr := NewTCP(listener.Addr().String(), nil)
	h := newRecordingHandler()
	tr.Connect(h)

	select {
	case <-h.connected:
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for Connected")
	}

	tr.Close()

	select {
	case err := <-h.closed:
		if err != nil {
			t.Errorf("local close reported error: %v", err)
		}
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for Closed")
	}
}
