package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/ntp"
	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

type failingSegment struct{}

func (failingSegment) Read() (ntp.Sample, error) {
	return ntp.Sample{}, errors.New("shmget failed")
}

type failingPeers struct{}

func (failingPeers) Peers(ctx context.Context) (ntp.PeerList, error) {
	return ntp.PeerList{}, errors.New("ntpq not found")
}

func (failingPeers) Variables(ctx context.Context) (ntp.SystemVariables, error) {
	return ntp.SystemVariables{}, errors.New("ntpq not found")
}

type syncedPeers struct{}

func (syncedPeers) Peers(ctx context.Context) (ntp.PeerList, error) {
	return ntp.PeerList{
		Lines: []string{"*10.0.0.1  .GPS.  1 u  64  64  377  0.2  0.011  0.004"},
		Raw:   "*10.0.0.1  .GPS.  1 u  64  64  377  0.2  0.011  0.004",
	}, nil
}

func (syncedPeers) Variables(ctx context.Context) (ntp.SystemVariables, error) {
	return ntp.SystemVariables{OffsetMS: 0.42, Stratum: 2, Precision: -24}, nil
}

func quietLogger() logging.Logger {
	return logging.New(io.Discard, nil)
}

func newTestServer(t *testing.T, peers ntp.PeerQuerier) *Server {
	t.Helper()
	quiet := quietLogger()
	return New(
		WithLogger(quiet),
		WithMonitor(ntp.NewMonitor(0, 100*time.Millisecond,
			ntp.WithSegmentReader(failingSegment{}),
			ntp.WithPeerQuerier(peers),
			ntp.WithLogger(quiet),
		)),
	)
}

func dispatch(t *testing.T, s *Server, raw string) *protocol.Response {
	t.Helper()
	return s.Dispatch(context.Background(), []byte(raw))
}

func requireResult(t *testing.T, resp *protocol.Response) json.RawMessage {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	require.NotEmpty(t, resp.Result)
	return resp.Result
}

func requireError(t *testing.T, resp *protocol.Response, code int) *protocol.Error {
	t.Helper()
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Result)
	assert.Equal(t, code, resp.Error.Code)
	return resp.Error
}

func callToolResult(t *testing.T, resp *protocol.Response) protocol.CallToolResult {
	t.Helper()
	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))
	return result
}

func TestDispatchInitialize(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"idle-agent","version":"2.0"}}}`)

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))

	assert.Equal(t, protocol.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, DefaultName, result.ServerInfo.Name)
	assert.Equal(t, DefaultVersion, result.ServerInfo.Version)
	require.NotNil(t, result.Capabilities.Tools)
	assert.False(t, result.Capabilities.Tools.ListChanged)
	require.NotNil(t, result.Capabilities.Prompts)
	assert.False(t, result.Capabilities.Prompts.ListChanged)
}

func TestDispatchInitializeWithoutParams(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))
	assert.Equal(t, protocol.ProtocolVersion, result.ProtocolVersion)
}

func TestDispatchPing(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	assert.JSONEq(t, `{}`, string(requireResult(t, resp)))
	assert.Equal(t, float64(7), resp.ID)
}

func TestDispatchToolsList(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	var result protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
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

	withSchema := map[string]bool{
		"get_time_formatted":     true,
		"get_time_with_timezone": true,
		"convert_time":           true,
	}
	for _, tool := range result.Tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		if withSchema[tool.Name] {
			assert.NotEmpty(t, tool.InputSchema, tool.Name)
		} else {
			assert.Empty(t, tool.InputSchema, tool.Name)
		}
	}
}

func TestDispatchToolsCall(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_time"}}`)
	result := callToolResult(t, resp)

	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Contains(t, payload, "iso8601")
	assert.Contains(t, payload, "unix")
	assert.Contains(t, payload, "custom_formats")

	// isError marshals even when false.
	assert.Contains(t, string(resp.Result), `"isError":false`)
}

func TestDispatchToolsCallWithArguments(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_time_with_timezone","arguments":{"timezone":"America/New_York"}}}`)
	result := callToolResult(t, resp)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, "America/New_York", payload["timezone"])
}

func TestDispatchToolsCallConvert(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"convert_time","arguments":{"timestamp":1700000000,"to_timezone":"Asia/Tokyo"}}}`)
	result := callToolResult(t, resp)
	require.False(t, result.IsError)

	var payload struct {
		Original struct {
			Timestamp int64  `json:"timestamp"`
			Timezone  string `json:"timezone"`
		} `json:"original"`
		Converted struct {
			Timezone string `json:"timezone"`
			Offset   int    `json:"offset"`
		} `json:"converted"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, int64(1700000000), payload.Original.Timestamp)
	assert.Equal(t, "UTC", payload.Original.Timezone)
	assert.Equal(t, "Asia/Tokyo", payload.Converted.Timezone)
	assert.Equal(t, 9*3600, payload.Converted.Offset)
}

func TestDispatchToolsCallUnknownTool(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// An unknown tool is an execution failure flagged in the result,
	// never a protocol error.
	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"make_coffee"}}`)
	result := callToolResult(t, resp)

	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "Unknown tool: make_coffee", result.Content[0].Text)
}

func TestDispatchToolsCallMissingName(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	for _, params := range []string{``, `{}`, `{"name":42}`, `null`, `[1,2]`} {
		raw := `{"jsonrpc":"2.0","id":1,"method":"tools/call"`
		if params != `` {
			raw += `,"params":` + params
		}
		raw += `}`

		resp := dispatch(t, s, raw)
		e := requireError(t, resp, mcperrors.CodeInvalidParams)
		assert.Equal(t, "Invalid parameters: tool name required", e.Message, "params=%s", params)
	}
}

func TestDispatchToolsCallMissingRequiredArgument(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	tests := []struct {
		name    string
		params  string
		message string
	}{
		{
			name:    "format absent",
			params:  `{"name":"get_time_formatted"}`,
			message: "Invalid parameters: format required",
		},
		{
			name:    "format wrong type",
			params:  `{"name":"get_time_formatted","arguments":{"format":7}}`,
			message: "Invalid parameters: format required",
		},
		{
			name:    "timezone absent",
			params:  `{"name":"get_time_with_timezone","arguments":{}}`,
			message: "Invalid parameters: timezone required",
		},
		{
			name:    "timestamp absent",
			params:  `{"name":"convert_time","arguments":{"to_timezone":"UTC"}}`,
			message: "Invalid parameters: timestamp required",
		},
		{
			name:    "timestamp fractional",
			params:  `{"name":"convert_time","arguments":{"timestamp":1.5,"to_timezone":"UTC"}}`,
			message: "Invalid parameters: timestamp required",
		},
		{
			name:    "to_timezone absent",
			params:  `{"name":"convert_time","arguments":{"timestamp":1700000000}}`,
			message: "Invalid parameters: to_timezone required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := dispatch(t, s,
				`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":`+tt.params+`}`)
			e := requireError(t, resp, mcperrors.CodeInvalidParams)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestDispatchToolsCallInvalidTimezone(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_time_with_timezone","arguments":{"timezone":"Not/AZone"}}}`)
	e := requireError(t, resp, mcperrors.CodeInvalidParams)
	assert.Contains(t, e.Message, "Invalid timezone: Not/AZone")
}

func TestDispatchToolsCallBadFormat(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// A rejected strftime pattern lands in the generic server band,
	// unlike a bad timezone.
	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_time_formatted","arguments":{"format":"%Q"}}}`)
	e := requireError(t, resp, mcperrors.CodeServerError)
	assert.Contains(t, e.Message, "Time error")
}

func TestDispatchNTPStatusUnavailable(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_ntp_status"}}`)
	result := callToolResult(t, resp)
	require.False(t, result.IsError, "degraded clock status is still a successful call")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, false, payload["available"])
	assert.Equal(t, false, payload["synced"])
	assert.Equal(t, "NTP not available or not synchronized", payload["message"])
}

func TestDispatchNTPStatusSynced(t *testing.T) {
	s := newTestServer(t, syncedPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_ntp_status"}}`)
	result := callToolResult(t, resp)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, true, payload["available"])
	assert.Equal(t, true, payload["synced"])
	assert.Equal(t, 0.42, payload["offset_ms"])
	assert.Equal(t, float64(2), payload["stratum"])
	assert.Contains(t, payload, "health")
}

func TestDispatchNTPPeers(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		s := newTestServer(t, syncedPeers{})
		resp := dispatch(t, s,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_ntp_peers"}}`)
		result := callToolResult(t, resp)
		require.False(t, result.IsError)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
		assert.Equal(t, true, payload["available"])
		assert.Contains(t, payload, "peers")
		assert.Contains(t, payload, "raw_output")
	})

	t.Run("query failure stays a successful call", func(t *testing.T) {
		s := newTestServer(t, failingPeers{})
		resp := dispatch(t, s,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_ntp_peers"}}`)
		result := callToolResult(t, resp)
		require.False(t, result.IsError)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
		assert.Equal(t, false, payload["available"])
		assert.Equal(t, "NTP daemon not available or ntpq command failed", payload["error"])
	})
}

func TestDispatchPromptsList(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`)
	var result protocol.ListPromptsResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))

	names := make([]string, len(result.Prompts))
	for i, p := range result.Prompts {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"time", "time_in", "format_time", "unix_time"}, names)

	timeIn := result.Prompts[1]
	require.Len(t, timeIn.Arguments, 1)
	assert.Equal(t, "timezone", timeIn.Arguments[0].Name)
	assert.True(t, timeIn.Arguments[0].Required)
}

func TestDispatchPromptsGet(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"time_in","arguments":{"timezone":"Europe/Paris"}}}`)
	var result protocol.GetPromptResult
	require.NoError(t, json.Unmarshal(requireResult(t, resp), &result))

	assert.Equal(t, "Current time in Europe/Paris", result.Description)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "user", result.Messages[0].Role)
	assert.Equal(t, "text", result.Messages[0].Content.Type)
	assert.Contains(t, result.Messages[0].Content.Text, "Europe/Paris")
}

func TestDispatchPromptsGetUnknown(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// Unlike tools/call, an unknown prompt is a protocol error.
	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"fortune"}}`)
	e := requireError(t, resp, mcperrors.CodeInvalidParams)
	assert.Equal(t, "Invalid parameters: Unknown prompt: fortune", e.Message)
}

func TestDispatchPromptsGetMissingArgument(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"time_in"}}`)
	e := requireError(t, resp, mcperrors.CodeInvalidParams)
	assert.Equal(t, "Invalid parameters: timezone required", e.Message)
}

func TestDispatchPromptsGetMissingName(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1,"method":"prompts/get"}`)
	e := requireError(t, resp, mcperrors.CodeInvalidParams)
	assert.Equal(t, "Invalid parameters: prompt name required", e.Message)
}

func TestDispatchLegacyMethods(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	tests := []struct {
		method  string
		params  string
		wantKey string
	}{
		{method: "time/get", wantKey: "iso8601"},
		{method: "time/get_unix", wantKey: "nanos_since_epoch"},
		{method: "time/get_nanos", wantKey: "nanoseconds"},
		{method: "time/list_timezones", wantKey: "timezones"},
		{method: "time/get_with_format", params: `{"format":"%Y-%m-%d"}`, wantKey: "formatted"},
		{method: "time/get_with_timezone", params: `{"timezone":"UTC"}`, wantKey: "timezone"},
		{method: "time/convert", params: `{"timestamp":1700000000,"to_timezone":"UTC"}`, wantKey: "converted"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			raw := `{"jsonrpc":"2.0","id":9,"method":"` + tt.method + `"`
			if tt.params != "" {
				raw += `,"params":` + tt.params
			}
			raw += `}`

			resp := dispatch(t, s, raw)

			// Legacy results are bare payloads, not tool content.
			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(requireResult(t, resp), &payload))
			assert.Contains(t, payload, tt.wantKey)
		})
	}
}

func TestDispatchLegacyUnknownMethod(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1,"method":"time/bogus"}`)
	e := requireError(t, resp, mcperrors.CodeMethodNotFound)
	assert.Equal(t, "Method not found: time/bogus", e.Message)
}

func TestDispatchMethodNotFound(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	e := requireError(t, resp, mcperrors.CodeMethodNotFound)
	assert.Equal(t, "Method not found: resources/list", e.Message)
}

func TestDispatchParseError(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	resp := dispatch(t, s, `{not json`)
	requireError(t, resp, mcperrors.CodeParseError)
	assert.Nil(t, resp.ID)
}

func TestDispatchParseErrorRecoversID(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// The frame is valid JSON but not a valid request; the id is still
	// recoverable and must be echoed.
	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":5,"method":7}`)
	requireError(t, resp, mcperrors.CodeParseError)
	assert.Equal(t, float64(5), resp.ID)
}

func TestDispatchInvalidRequest(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	t.Run("missing method", func(t *testing.T) {
		resp := dispatch(t, s, `{"jsonrpc":"2.0","id":1}`)
		e := requireError(t, resp, mcperrors.CodeInvalidRequest)
		assert.Equal(t, "Invalid request", e.Message)
		assert.Equal(t, float64(1), resp.ID)
	})

	t.Run("wrong version", func(t *testing.T) {
		resp := dispatch(t, s, `{"jsonrpc":"1.0","id":1,"method":"ping"}`)
		requireError(t, resp, mcperrors.CodeInvalidRequest)
	})

	t.Run("version absent", func(t *testing.T) {
		resp := dispatch(t, s, `{"id":1,"method":"ping"}`)
		requireError(t, resp, mcperrors.CodeInvalidRequest)
	})
}

func TestDispatchNotificationsAreSilent(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	for _, raw := range []string{
		`{"jsonrpc":"2.0","method":"ping"}`,
		`{"jsonrpc":"2.0","id":null,"method":"ping"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":3}}`,
		// Even a failing method stays silent without an id.
		`{"jsonrpc":"2.0","method":"no/such_method"}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_time_formatted"}}`,
	} {
		assert.Nil(t, dispatch(t, s, raw), "raw=%s", raw)
	}
}

func TestDispatchNotificationMethodWithIDIsAnswered(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// A notifications/* method carrying an id gets an empty result so
	// the id is not left dangling.
	resp := dispatch(t, s, `{"jsonrpc":"2.0","id":11,"method":"notifications/initialized"}`)
	assert.JSONEq(t, `{}`, string(requireResult(t, resp)))
	assert.Equal(t, float64(11), resp.ID)
}

func TestDispatchEchoesIDTypes(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	tests := []struct {
		raw  string
		want interface{}
	}{
		{`{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42)},
		{`{"jsonrpc":"2.0","id":"abc-123","method":"ping"}`, "abc-123"},
		{`{"jsonrpc":"2.0","id":0,"method":"ping"}`, float64(0)},
		{`{"jsonrpc":"2.0","id":-7,"method":"ping"}`, float64(-7)},
	}
	for _, tt := range tests {
		resp := dispatch(t, s, tt.raw)
		requireResult(t, resp)
		assert.Equal(t, tt.want, resp.ID)
	}
}

func TestDispatchPanicContained(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// Poison one handler directly; the registry is frozen for callers
	// but reachable inside the package.
	i := s.registry.toolIndex["get_time"]
	s.registry.tools[i].handler = func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		panic("boom")
	}

	resp := dispatch(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_time"}}`)
	e := requireError(t, resp, mcperrors.CodeInternalError)
	assert.Equal(t, "Internal error", e.Message)

	// The server keeps serving afterward.
	resp = dispatch(t, s, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	requireResult(t, resp)
}

func TestHandleMessage(t *testing.T) {
	s := newTestServer(t, failingPeers{})
	ctx := context.Background()

	out := s.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NotNil(t, out)
	var resp protocol.Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, protocol.JSONRPCVersion, resp.JSONRPC)
	assert.Equal(t, float64(1), resp.ID)

	assert.Nil(t, s.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"ping"}`)))
}

func TestDispatchConcurrentRequests(t *testing.T) {
	s := newTestServer(t, failingPeers{})

	// One Server instance backs both channels; nothing here may race.
	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				raw := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/list"}`, w*100+i)
				resp := s.Dispatch(context.Background(), []byte(raw))
				if resp == nil || resp.Error != nil {
					t.Errorf("worker %d request %d failed: %+v", w, i, resp)
					return
				}
			}
		}(w)
	}
	for w := 0; w < 8; w++ {
		<-done
	}
}

func FuzzDispatch(f *testing.F) {
	f.Add(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	f.Add(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	f.Add(`{"jsonrpc":"2.0","id":"x","method":"tools/call","params":{"name":"get_time"}}`)
	f.Add(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"convert_time","arguments":{"timestamp":1700000000,"to_timezone":"UTC"}}}`)
	f.Add(`{not json`)
	f.Add(``)
	f.Add(`[]`)
	f.Add(`{"id":null}`)
	f.Add(`{"jsonrpc":"2.0","id":{"a":1},"method":"ping"}`)

	quiet := quietLogger()
	s := New(
		WithLogger(quiet),
		WithMonitor(ntp.NewMonitor(0, 50*time.Millisecond,
			ntp.WithSegmentReader(failingSegment{}),
			ntp.WithPeerQuerier(failingPeers{}),
			ntp.WithLogger(quiet),
		)),
	)

	f.Fuzz(func(t *testing.T, raw string) {
		out := s.HandleMessage(context.Background(), []byte(raw))
		if out == nil {
			return
		}
		var resp protocol.Response
		if err := json.Unmarshal(out, &resp); err != nil {
			t.Fatalf("response does not decode: %v", err)
		}
		if resp.JSONRPC != protocol.JSONRPCVersion {
			t.Fatalf("response version %q", resp.JSONRPC)
		}
		if resp.Error == nil && len(resp.Result) == 0 {
			t.Fatal("response carries neither result nor error")
		}
	})
}
