// Package client implements the connection lifecycle and command delivery
// engine for a single chat connection.
//
// The engine drives one transport through Connecting -> Ready -> Closed and
// guarantees that outbound commands reach the wire in enqueue order. Command
// submission and connection establishment are concurrent: callers may
// legitimately enqueue the whole registration handshake before the dial has
// finished. Commands accepted while Connecting are held in a FIFO queue and
// flushed atomically on the Ready transition, so nothing enqueued afterwards
// can jump ahead of them.
package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lawnchairsociety/tmi/internal/command"
	"github.com/lawnchairsociety/tmi/internal/logger"
	"github.com/lawnchairsociety/tmi/internal/transport"
	"github.com/lawnchairsociety/tmi/internal/wire"
)

// ErrClosed is returned by Enqueue once the engine has closed.
var ErrClosed = errors.New("client: engine closed")

// State identifies the engine lifecycle phase. Transitions are monotonic:
// Connecting -> Ready -> Closed, or Connecting -> Closed. An engine never
// returns to Connecting.
type State int

const (
	// Connecting is the initial state; the dial is in flight and outbound
	// commands are buffered.
	Connecting State = iota

	// Ready means the link is writable; commands are sent immediately.
	Ready

	// Closed is terminal. The transport is released and enqueues fail.
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LineFunc receives each inbound line, terminator stripped, in network
// arrival order. It runs on the transport's read goroutine; a slow LineFunc
// backpressures the connection.
type LineFunc func(line string)

// CloseFunc is invoked exactly once when the engine reaches Closed. err is
// nil for a locally requested close and carries the connect or connection
// failure otherwise.
type CloseFunc func(err error)

// Options configures an Engine. Both callbacks are optional.
type Options struct {
	OnLine  LineFunc
	OnClose CloseFunc
}

// Engine owns one Transport for its lifetime and serializes every state and
// queue mutation behind a single mutex, so the flush-on-ready drain can
// never interleave with concurrent enqueues.
type Engine struct {
	tr      transport.Transport
	onLine  LineFunc
	onClose CloseFunc

	mu       sync.Mutex
	state    State
	pending  []command.Command
	splitter wire.Splitter
}

// New creates an engine that will drive tr. Nothing touches the network
// until Start.
func New(tr transport.Transport, opts Options) *Engine {
	onLine := opts.OnLine
	if onLine == nil {
		onLine = func(string) {}
	}
	onClose := opts.OnClose
	if onClose == nil {
		onClose = func(error) {}
	}
	return &Engine{
		tr:      tr,
		onLine:  onLine,
		onClose: onClose,
		state:   Connecting,
	}
}

// Start begins the asynchronous dial. Commands enqueued before or during
// the dial are held and flushed, in order, once the link is ready.
func (e *Engine) Start() {
	e.tr.Connect(handler{e})
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Enqueue accepts one outbound command. While the engine is connecting the
// command is buffered; once ready it is encoded and sent immediately. A
// command that cannot be encoded is rejected without touching the engine
// state or the connection. After Closed, Enqueue returns ErrClosed and no
// bytes are ever sent.
func (e *Engine) Enqueue(cmd command.Command) error {
	e.mu.Lock()

	switch e.state {
	case Closed:
		e.mu.Unlock()
		return ErrClosed

	case Connecting:
		// Validate now so a malformed command is reported to the caller
		// that submitted it, not discovered during the flush.
		if _, err := cmd.Encode(); err != nil {
			e.mu.Unlock()
			return err
		}
		e.pending = append(e.pending, cmd)
		e.mu.Unlock()
		logger.Debug("command queued until ready", "verb", cmd.Verb())
		return nil
	}

	// Ready: encode and send immediately.
	data, err := cmd.Encode()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.tr.Send(data); err != nil {
		// A failed write means the connection is lost.
		sendErr := fmt.Errorf("send %s: %w", cmd.Verb(), err)
		notify := e.closeLocked()
		e.mu.Unlock()
		notify(sendErr)
		return sendErr
	}
	e.mu.Unlock()
	return nil
}

// Close tears the engine down from the caller's side. Pending commands are
// discarded with no partial flush. Safe to call in any state; repeat calls
// are no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.state == Closed {
		e.mu.Unlock()
		return
	}
	notify := e.closeLocked()
	e.mu.Unlock()
	notify(nil)
}

// closeLocked performs the transition to Closed: the pending queue and
// framing residue are dropped and the state becomes terminal. Must be called
// with e.mu held and state != Closed. The returned function releases the
// transport and delivers the close notification; invoke it after unlocking,
// since the callback may call back into the engine.
func (e *Engine) closeLocked() func(error) {
	e.state = Closed
	e.pending = nil
	e.splitter.Reset()
	tr := e.tr
	onClose := e.onClose
	return func(err error) {
		tr.Close()
		if err != nil {
			logger.Warning("connection closed", "error", err)
		} else {
			logger.Debug("connection closed")
		}
		onClose(err)
	}
}

// connected handles the transport's dial-success signal: transition to
// Ready, then drain the pending queue in enqueue order. The drain happens
// under the engine lock, so a command enqueued concurrently cannot be sent
// ahead of the queued prefix.
func (e *Engine) connected() {
	e.mu.Lock()
	if e.state != Connecting {
		// Closed while the dial was in flight; the transport will be
		// released by the close path.
		e.mu.Unlock()
		return
	}
	e.state = Ready
	pending := e.pending
	e.pending = nil

	for i, cmd := range pending {
		data, err := cmd.Encode()
		if err != nil {
			// Commands are validated at enqueue time; this cannot happen.
			continue
		}
		if err := e.tr.Send(data); err != nil {
			sendErr := fmt.Errorf("flush %s (%d of %d): %w", cmd.Verb(), i+1, len(pending), err)
			notify := e.closeLocked()
			e.mu.Unlock()
			notify(sendErr)
			return
		}
	}
	e.mu.Unlock()
	logger.Info("connection ready", "flushed", len(pending))
}

// connectFailed handles a dial failure: terminal, queue discarded.
func (e *Engine) connectFailed(err error) {
	e.mu.Lock()
	if e.state != Connecting {
		e.mu.Unlock()
		return
	}
	discarded := len(e.pending)
	notify := e.closeLocked()
	e.mu.Unlock()
	notify(fmt.Errorf("connect: %w", err))
	if discarded > 0 {
		logger.Debug("discarded queued commands", "count", discarded)
	}
}

// received frames one inbound chunk and forwards each complete line to the
// sink. Chunks arrive on the transport's single read goroutine, so lines
// are delivered in network arrival order.
func (e *Engine) received(chunk []byte) {
	e.mu.Lock()
	if e.state != Ready {
		e.mu.Unlock()
		return
	}
	lines := e.splitter.Feed(chunk)
	e.mu.Unlock()

	for _, line := range lines {
		e.onLine(line)
	}
}

// closed handles the transport's connection-loss signal.
func (e *Engine) closed(err error) {
	e.mu.Lock()
	if e.state == Closed {
		e.mu.Unlock()
		return
	}
	notify := e.closeLocked()
	e.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("connection lost: %w", err)
	}
	notify(err)
}

// handler adapts transport events onto the engine without exporting the
// callback surface on Engine itself.
type handler struct {
	e *Engine
}

func (h handler) Connected()              { h.e.connected() }
func (h handler) ConnectFailed(err error) { h.e.connectFailed(err) }
func (h handler) Received(chunk []byte)   { h.e.received(chunk) }
func (h handler) Closed(err error)        { h.e.closed(err) }
