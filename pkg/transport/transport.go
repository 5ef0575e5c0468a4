package transport

import (
	"context"
)

// Handler consumes one raw JSON-RPC message and returns the bytes to
// write back. A nil return means the message was a notification and
// nothing may be sent. The protocol dispatcher implements this; the
// transports stay ignorant of what the bytes mean.
type Handler interface {
	HandleMessage(ctx context.Context, raw []byte) []byte
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, raw []byte) []byte

// HandleMessage calls f.
func (f HandlerFunc) HandleMessage(ctx context.Context, raw []byte) []byte {
	return f(ctx, raw)
}

// Transport is one server-side channel carrying JSON-RPC traffic.
// Channels fail independently: an error from one Start never obliges
// the caller to tear down another transport, though the process
// normally does.
type Transport interface {
	// Start serves the channel until it ends. It blocks; the return is
	// nil for a clean end of stream and an error for an I/O failure or
	// context cancellation.
	Start(ctx context.Context) error

	// Stop halts the channel and flushes anything buffered. Safe to
	// call more than once and concurrently with Start.
	Stop(ctx context.Context) error
}
