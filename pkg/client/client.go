package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

const (
	initialBufferSize = 64 * 1024
	maxLineBytes      = 1024 * 1024
)

// Client speaks JSON-RPC 2.0 over a newline-delimited byte stream.
// The server side answers requests strictly in order and never pushes
// unsolicited messages, so each request is paired with the next line
// read from the stream.
type Client struct {
	mu     sync.Mutex
	writer *bufio.Writer
	nextID atomic.Int64

	lines   chan []byte
	readErr error
	once    sync.Once
	closer  io.Closer

	serverInfo   protocol.ServerInfo
	capabilities protocol.ServerCapabilities
	initialized  bool
}

// New wraps an established reader/writer pair, typically the two ends
// of a pipe to a child process. If r also implements io.Closer it is
// closed by Close.
func New(r io.Reader, w io.Writer) *Client {
	c := &Client{
		writer: bufio.NewWriter(w),
		lines:  make(chan []byte, 1),
	}
	if closer, ok := r.(io.Closer); ok {
		c.closer = closer
	}
	go c.readLoop(r)
	return c
}

// readLoop forwards each incoming line to the lines channel. The
// channel is closed on EOF or read error; the error is surfaced to the
// blocked caller through readErr.
func (c *Client) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufferSize), maxLineBytes)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line := make([]byte, len(raw))
		copy(line, raw)
		c.lines <- line
	}
	c.readErr = scanner.Err()
	close(c.lines)
}

// Call sends a request and blocks until the matching response arrives
// or ctx is done. Protocol-level failures are returned as *MCPError
// via FromJSONRPCError; the response is returned as-is only when it
// carries a result.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (*protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	if err := c.send(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			if c.readErr != nil {
				return nil, mcperrors.StdioTransportError("read", c.readErr)
			}
			return nil, io.EOF
		}
		var resp protocol.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		if fmt.Sprint(resp.ID) != fmt.Sprint(float64(id)) {
			return nil, fmt.Errorf("response id %v does not match request id %d", resp.ID, id)
		}
		if resp.Error != nil {
			return nil, mcperrors.FromJSONRPCError(resp.Error)
		}
		return &resp, nil
	}
}

// Notify sends a notification. No response is expected and none is
// waited for.
func (c *Client) Notify(method string, params interface{}) error {
	notif, err := protocol.NewNotification(method, params)
	if err != nil {
		return err
	}
	return c.send(notif)
}

func (c *Client) send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		return mcperrors.StdioTransportError("write", err)
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return mcperrors.StdioTransportError("write", err)
	}
	if err := c.writer.Flush(); err != nil {
		return mcperrors.StdioTransportError("flush", err)
	}
	return nil
}

// Initialize performs the lifecycle handshake and records the server's
// identity and capabilities. The initialized notification is sent
// after a successful response, completing the exchange.
func (c *Client) Initialize(ctx context.Context, name, version string) (*protocol.InitializeResult, error) {
	params := protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		ClientInfo: &protocol.ClientInfo{
			Name:    name,
			Version: version,
		},
	}
	resp, err := c.Call(ctx, protocol.MethodInitialize, params)
	if err != nil {
		return nil, err
	}
	var result protocol.InitializeResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	c.serverInfo = result.ServerInfo
	c.capabilities = result.Capabilities
	c.initialized = true
	if err := c.Notify(protocol.NotificationsPrefix+"initialized", nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// ServerInfo returns the identity reported during the handshake. The
// zero value is returned before Initialize succeeds.
func (c *Client) ServerInfo() protocol.ServerInfo {
	return c.serverInfo
}

// Capabilities returns the capability set reported during the
// handshake.
func (c *Client) Capabilities() protocol.ServerCapabilities {
	return c.capabilities
}

// Ping checks liveness. Any non-error response counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, protocol.MethodPing, nil)
	return err
}

// ListTools fetches the full tool catalog.
func (c *Client) ListTools(ctx context.Context) (*protocol.ListToolsResult, error) {
	resp, err := c.Call(ctx, protocol.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	var result protocol.ListToolsResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool invokes a named tool. Tool-level failures come back as a
// result with IsError set, not as a Go error.
func (c *Client) CallTool(ctx context.Context, name string, args interface{}) (*protocol.CallToolResult, error) {
	params := protocol.CallToolParams{Name: name}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments: %w", err)
		}
		params.Arguments = data
	}
	resp, err := c.Call(ctx, protocol.MethodToolsCall, params)
	if err != nil {
		return nil, err
	}
	var result protocol.CallToolResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts fetches the prompt catalog.
func (c *Client) ListPrompts(ctx context.Context) (*protocol.ListPromptsResult, error) {
	resp, err := c.Call(ctx, protocol.MethodPromptsList, nil)
	if err != nil {
		return nil, err
	}
	var result protocol.ListPromptsResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt renders a named prompt with the given arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error) {
	params := protocol.GetPromptParams{Name: name, Arguments: args}
	resp, err := c.Call(ctx, protocol.MethodPromptsGet, params)
	if err != nil {
		return nil, err
	}
	var result protocol.GetPromptResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close flushes pending output and closes the underlying reader when
// it supports closing, which unblocks the read loop.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		flushErr := c.writer.Flush()
		c.mu.Unlock()
		if c.closer != nil {
			if closeErr := c.closer.Close(); closeErr != nil && flushErr == nil {
				flushErr = closeErr
			}
		}
		err = flushErr
	})
	return err
}

func decodeResult(resp *protocol.Response, out interface{}) error {
	if len(resp.Result) == 0 {
		return fmt.Errorf("response carries no result")
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
