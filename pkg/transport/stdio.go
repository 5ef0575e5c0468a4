package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
)

const (
	// stdioInitialBuffer is the scanner's starting line buffer.
	stdioInitialBuffer = 64 * 1024

	// stdioMaxLineBytes caps a single request line. A frame past this
	// is an I/O error, not something to buffer without bound.
	stdioMaxLineBytes = 1024 * 1024
)

// StdioTransport carries newline-delimited JSON-RPC over standard
// input and output. The channel has exactly one client and that
// client requires in-order responses, so the read loop is strictly
// sequential: one message is fully handled and answered before the
// next line is read. A slow handler therefore delays every request
// behind it, which is the intended trade-off on this channel.
//
// Logs must never touch the writer; stdout is the wire.
type StdioTransport struct {
	handler Handler
	reader  io.Reader
	writer  *bufio.Writer
	logger  logging.Logger

	mu       sync.Mutex // guards writer
	done     chan struct{}
	stopOnce sync.Once
}

// StdioOption configures a StdioTransport.
type StdioOption func(*StdioTransport)

// WithReader replaces standard input, mainly for tests.
func WithReader(r io.Reader) StdioOption {
	return func(t *StdioTransport) { t.reader = r }
}

// WithWriter replaces standard output, mainly for tests.
func WithWriter(w io.Writer) StdioOption {
	return func(t *StdioTransport) { t.writer = bufio.NewWriter(w) }
}

// WithStdioLogger sets the transport's logger.
func WithStdioLogger(l logging.Logger) StdioOption {
	return func(t *StdioTransport) { t.logger = l }
}

// NewStdioTransport builds the STDIO channel in front of handler.
func NewStdioTransport(handler Handler, opts ...StdioOption) *StdioTransport {
	t := &StdioTransport{
		handler: handler,
		reader:  os.Stdin,
		writer:  bufio.NewWriter(os.Stdout),
		logger:  logging.New(nil, nil),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start reads request lines until end of stream. EOF is a clean
// shutdown and returns nil; a read or write failure is fatal for this
// channel and returns a transport error. The context cancels the loop
// between messages.
func (t *StdioTransport) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	scanner := bufio.NewScanner(t.reader)
	scanner.Buffer(make([]byte, 0, stdioInitialBuffer), stdioMaxLineBytes)

	scannerDone := make(chan struct{})

	g.Go(func() error {
		defer close(scannerDone)

		for scanner.Scan() {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.done:
				return nil
			default:
			}

			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			// Copy before the next Scan reuses the buffer.
			data := make([]byte, len(line))
			copy(data, line)

			if err := t.handleLine(gctx, data); err != nil {
				return err
			}
		}

		if err := scanner.Err(); err != nil {
			// A read error after shutdown was requested is the watchdog
			// closing the reader, not a real failure.
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.done:
				return nil
			default:
			}
			return mcperrors.StdioTransportError("read", err)
		}
		t.logger.Debug("End of input stream, shutting down stdio channel")
		return nil
	})

	// scanner.Scan blocks outside context control; closing the reader
	// is the only way to unstick it on cancellation.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			t.closeReader()
			return gctx.Err()
		case <-t.done:
			t.closeReader()
			return nil
		case <-scannerDone:
			return nil
		}
	})

	return g.Wait()
}

// handleLine runs one message through the handler and writes the
// response. A handler panic is contained here so a poisoned message
// cannot take the channel down; a write failure can, because a dead
// stdout means no caller is listening.
func (t *StdioTransport) handleLine(ctx context.Context, data []byte) error {
	var out []byte
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("Panic handling message",
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())))
				out = nil
			}
		}()
		out = t.handler.HandleMessage(ctx, data)
	}()

	if out == nil {
		return nil
	}
	return t.Send(out)
}

// Send writes one response line and flushes it. Safe for concurrent
// use; responses are newline-delimited so interleaving frames would
// corrupt the stream.
func (t *StdioTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.writer.Write(data); err != nil {
		return mcperrors.StdioTransportError("write", err)
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return mcperrors.StdioTransportError("write", err)
	}
	if err := t.writer.Flush(); err != nil {
		return mcperrors.StdioTransportError("flush", err)
	}
	return nil
}

// Stop halts the read loop and flushes any buffered output.
func (t *StdioTransport) Stop(ctx context.Context) error {
	var flushErr error
	t.stopOnce.Do(func() {
		close(t.done)
		t.closeReader()

		t.mu.Lock()
		flushErr = t.writer.Flush()
		t.mu.Unlock()
	})

	if flushErr != nil {
		return mcperrors.StdioTransportError("flush", flushErr)
	}
	return nil
}

func (t *StdioTransport) closeReader() {
	if closer, ok := t.reader.(io.Closer); ok {
		_ = closer.Close()
	}
}
