// Package transport owns the raw connection to the chat server and exposes
// an asynchronous send/receive surface to the client engine.
//
// A Transport is a replaceable byte-stream primitive: the engine never sees
// sockets, only the Handler events. Chunk boundaries on Received carry no
// meaning; the engine's framing layer reassembles lines regardless of how
// the network fragments them.
package transport

// Handler receives transport events. Callbacks run on the transport's own
// goroutine, one at a time, so event order is the order things happened on
// the connection. Exactly one of Connected or ConnectFailed fires per
// Connect; Closed fires at most once, and only after Connected.
type Handler interface {
	// Connected reports that the dial succeeded and the link is writable.
	Connected()

	// ConnectFailed reports that the dial failed; no further events follow.
	ConnectFailed(err error)

	// Received delivers one inbound chunk. The slice is owned by the
	// receiver and never reused by the transport.
	Received(chunk []byte)

	// Closed reports that the connection is gone, whether by remote close,
	// mid-stream failure, or a local Close call.
	Closed(err error)
}

// Transport is the connection primitive underneath a client engine. A
// Transport instance serves exactly one connection attempt; it is not
// reusable after Closed or ConnectFailed.
type Transport interface {
	// Connect begins the asynchronous dial. It never blocks on the
	// network; the outcome arrives on the handler.
	Connect(h Handler)

	// Send writes p in full, or returns an error after which the
	// connection must be considered lost. Send is not safe for concurrent
	// use; the engine serializes all sends.
	Send(p []byte) error

	// Close tears the connection down. Idempotent.
	Close() error
}
