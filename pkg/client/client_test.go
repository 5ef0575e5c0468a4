package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utcsync/mcp-time-server/pkg/client"
	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/protocol"
	"github.com/utcsync/mcp-time-server/pkg/server"
	"github.com/utcsync/mcp-time-server/pkg/transport"
)

type deadSegment struct{}

func (deadSegment) Read() (ntp.Sample, error) {
	return ntp.Sample{}, errors.New("no segment")
}

type deadPeers struct{}

func (deadPeers) Peers(ctx context.Context) (ntp.PeerList, error) {
	return ntp.PeerList{}, errors.New("ntpq missing")
}

func (deadPeers) Variables(ctx context.Context) (ntp.SystemVariables, error) {
	return ntp.SystemVariables{}, errors.New("ntpq missing")
}

// startPipeline connects a client to a real server over an in-process
// stdio channel. The clock-status tiers are stubbed out so nothing
// touches the host's NTP daemon.
func startPipeline(t *testing.T) *client.Client {
	t.Helper()

	quiet := logging.New(io.Discard, nil)
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	srv := server.New(
		server.WithLogger(quiet),
		server.WithMonitor(ntp.NewMonitor(0, 100*time.Millisecond,
			ntp.WithSegmentReader(deadSegment{}),
			ntp.WithPeerQuerier(deadPeers{}),
			ntp.WithLogger(quiet),
		)),
	)

	tr := transport.NewStdioTransport(srv,
		transport.WithReader(serverIn),
		transport.WithWriter(serverOut),
		transport.WithStdioLogger(quiet),
	)

	done := make(chan error, 1)
	go func() { done <- tr.Start(context.Background()) }()

	c := client.New(clientIn, clientOut)
	t.Cleanup(func() {
		require.NoError(t, clientOut.Close())
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("stdio channel did not shut down on end of input")
		}
		_ = serverOut.Close()
		_ = c.Close()
	})
	return c
}

func TestInitializeHandshake(t *testing.T) {
	c := startPipeline(t)

	result, err := c.Initialize(context.Background(), "test-client", "0.0.1")
	require.NoError(t, err)

	assert.Equal(t, protocol.ProtocolVersion, result.ProtocolVersion)
	assert.NotEmpty(t, result.ServerInfo.Name)
	assert.NotEmpty(t, result.ServerInfo.Version)

	require.NotNil(t, result.Capabilities.Tools)
	assert.False(t, result.Capabilities.Tools.ListChanged)
	require.NotNil(t, result.Capabilities.Prompts)
	assert.False(t, result.Capabilities.Prompts.ListChanged)

	assert.Equal(t, result.ServerInfo, c.ServerInfo())
	assert.Equal(t, result.Capabilities, c.Capabilities())
}

func TestPing(t *testing.T) {
	c := startPipeline(t)
	require.NoError(t, c.Ping(context.Background()))
}

func TestToolCatalogAndCall(t *testing.T) {
	c := startPipeline(t)
	ctx := context.Background()

	list, err := c.ListTools(ctx)
	require.NoError(t, err)

	names := make([]string, len(list.Tools))
	for i, tool := range list.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{
		"get_time",
		"get_unix_time",
		"get_nanos",
		"get_time_formatted",
		"get_time_with_timezone",
		"list_timezones",
		"convert_time",
		"get_ntp_status",
		"get_ntp_peers",
	}, names)

	result, err := c.CallTool(ctx, "get_time", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Contains(t, payload, "iso8601")
	assert.Contains(t, payload, "nanos_since_epoch")
}

func TestToolArguments(t *testing.T) {
	c := startPipeline(t)

	result, err := c.CallTool(context.Background(), "get_time_with_timezone",
		map[string]string{"timezone": "Europe/London"})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, "Europe/London", payload["timezone"])
}

func TestUnknownToolIsFlaggedNotFailed(t *testing.T) {
	c := startPipeline(t)

	result, err := c.CallTool(context.Background(), "make_coffee", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "Unknown tool: make_coffee", result.Content[0].Text)
}

func TestUnknownPromptIsProtocolError(t *testing.T) {
	c := startPipeline(t)

	_, err := c.GetPrompt(context.Background(), "fortune", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.CodeInvalidParams))
	assert.Contains(t, err.Error(), "Unknown prompt: fortune")
}

func TestPromptRoundTrip(t *testing.T) {
	c := startPipeline(t)
	ctx := context.Background()

	list, err := c.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, list.Prompts, 4)
	assert.Equal(t, "time", list.Prompts[0].Name)

	result, err := c.GetPrompt(ctx, "time_in", map[string]string{"timezone": "Asia/Tokyo"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Messages)
	assert.Equal(t, "user", result.Messages[0].Role)
}

func TestSequentialCallsStayPaired(t *testing.T) {
	c := startPipeline(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		resp, err := c.Call(ctx, protocol.MethodTimeGetUnix, nil)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Result)
	}
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	c := startPipeline(t)

	// Nothing may come back for these; the next read must pair with
	// the ping that follows.
	require.NoError(t, c.Notify(protocol.NotificationsPrefix+"initialized", nil))
	require.NoError(t, c.Notify(protocol.MethodTimeGet, nil))

	require.NoError(t, c.Ping(context.Background()))
}

func TestServerErrorSurfacesAsMCPError(t *testing.T) {
	c := startPipeline(t)

	_, err := c.Call(context.Background(), "time/get_with_format",
		map[string]string{"format": "%Q"})
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.CodeServerError))
	assert.Contains(t, err.Error(), "Time error")
}

func TestCallContextCancellation(t *testing.T) {
	c := startPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, protocol.MethodPing, nil)
	require.ErrorIs(t, err, context.Canceled)
}
