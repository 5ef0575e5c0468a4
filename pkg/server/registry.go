package server

import (
	"context"
	"encoding/json"

	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

// ToolHandler executes one tool call. Arguments arrive as the raw
// JSON the client sent; handlers that take no arguments ignore them.
// The same handlers back the legacy time/* methods, where the
// request's own params take the place of tool arguments.
type ToolHandler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// PromptRenderer produces the rendered messages for one prompt.
// Arguments are the string-valued entries of the request's arguments
// object; non-string values are treated as absent.
type PromptRenderer func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error)

type toolEntry struct {
	tool    protocol.Tool
	handler ToolHandler
}

type promptEntry struct {
	prompt protocol.Prompt
	render PromptRenderer
}

// Registry maps tool, prompt, and legacy method names to their
// handlers. It is built once, before any transport starts, and never
// mutated afterward: concurrent readers need no locking.
type Registry struct {
	tools   []toolEntry
	prompts []promptEntry
	legacy  map[string]ToolHandler

	toolIndex   map[string]int
	promptIndex map[string]int
}

// NewRegistry builds the fixed tool and prompt set backed by h. The
// descriptor names, titles, descriptions, and input schemas are wire
// contract; clients key on them.
func NewRegistry(h *Handlers) *Registry {
	r := &Registry{
		legacy:      make(map[string]ToolHandler),
		toolIndex:   make(map[string]int),
		promptIndex: make(map[string]int),
	}

	r.addTool(protocol.Tool{
		Name:        "get_time",
		Title:       "Get Current Time",
		Description: "Get current UTC time with full Unix/POSIX details",
	}, h.getTime)

	r.addTool(protocol.Tool{
		Name:        "get_unix_time",
		Title:       "Get Unix Time",
		Description: "Get Unix epoch time with nanosecond precision",
	}, h.getUnixTime)

	r.addTool(protocol.Tool{
		Name:        "get_nanos",
		Title:       "Get Nanoseconds",
		Description: "Get nanoseconds since Unix epoch",
	}, h.getNanos)

	r.addTool(protocol.Tool{
		Name:        "get_time_formatted",
		Title:       "Get Formatted Time",
		Description: "Get time formatted with strftime format string",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"format":{"type":"string","description":"strftime format string (e.g., '%Y-%m-%d %H:%M:%S')"}},"required":["format"]}`),
	}, h.getTimeFormatted)

	r.addTool(protocol.Tool{
		Name:        "get_time_with_timezone",
		Title:       "Get Time in Timezone",
		Description: "Get time in specified timezone",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"timezone":{"type":"string","description":"IANA timezone name (e.g., 'America/New_York', 'Europe/London')"}},"required":["timezone"]}`),
	}, h.getTimeWithTimezone)

	r.addTool(protocol.Tool{
		Name:        "list_timezones",
		Title:       "List Timezones",
		Description: "List all available IANA timezones",
	}, h.listTimezones)

	r.addTool(protocol.Tool{
		Name:        "convert_time",
		Title:       "Convert Time",
		Description: "Convert timestamp between timezones",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"timestamp":{"type":"number","description":"Unix timestamp in seconds"},"from_timezone":{"type":"string","description":"Source timezone (optional, defaults to UTC)"},"to_timezone":{"type":"string","description":"Target timezone"}},"required":["timestamp","to_timezone"]}`),
	}, h.convertTime)

	r.addTool(protocol.Tool{
		Name:        "get_ntp_status",
		Description: "Get NTP synchronization status and performance metrics (read-only)",
	}, h.getNTPStatus)

	r.addTool(protocol.Tool{
		Name:        "get_ntp_peers",
		Description: "Get information about NTP peers and their status (read-only)",
	}, h.getNTPPeers)

	r.addPrompt(protocol.Prompt{
		Name:        "time",
		Title:       "⏰ Current Time",
		Description: "Get the current UTC time with detailed information",
	}, h.promptTime)

	r.addPrompt(protocol.Prompt{
		Name:        "time_in",
		Title:       "🌍 Time in Timezone",
		Description: "Get the current time in a specific timezone",
		Arguments: []protocol.PromptArgument{{
			Name:        "timezone",
			Description: "IANA timezone name (e.g., 'America/New_York')",
			Required:    true,
		}},
	}, h.promptTimeIn)

	r.addPrompt(protocol.Prompt{
		Name:        "format_time",
		Title:       "📅 Format Time",
		Description: "Get the current time in a custom format",
		Arguments: []protocol.PromptArgument{{
			Name:        "format",
			Description: "strftime format string (e.g., '%Y-%m-%d %H:%M:%S')",
			Required:    true,
		}},
	}, h.promptFormatTime)

	r.addPrompt(protocol.Prompt{
		Name:        "unix_time",
		Title:       "🕐 Unix Timestamp",
		Description: "Get the current Unix timestamp with nanosecond precision",
	}, h.promptUnixTime)

	r.legacy[protocol.MethodTimeGet] = h.getTime
	r.legacy[protocol.MethodTimeGetWithFormat] = h.getTimeFormatted
	r.legacy[protocol.MethodTimeGetWithTimezone] = h.getTimeWithTimezone
	r.legacy[protocol.MethodTimeGetUnix] = h.getUnixTime
	r.legacy[protocol.MethodTimeGetNanos] = h.getNanos
	r.legacy[protocol.MethodTimeListTimezones] = h.listTimezones
	r.legacy[protocol.MethodTimeConvert] = h.convertTime

	return r
}

func (r *Registry) addTool(tool protocol.Tool, handler ToolHandler) {
	r.toolIndex[tool.Name] = len(r.tools)
	r.tools = append(r.tools, toolEntry{tool: tool, handler: handler})
}

func (r *Registry) addPrompt(prompt protocol.Prompt, render PromptRenderer) {
	r.promptIndex[prompt.Name] = len(r.prompts)
	r.prompts = append(r.prompts, promptEntry{prompt: prompt, render: render})
}

// Tools returns the tool descriptors in registration order.
func (r *Registry) Tools() []protocol.Tool {
	out := make([]protocol.Tool, len(r.tools))
	for i, e := range r.tools {
		out[i] = e.tool
	}
	return out
}

// Prompts returns the prompt descriptors in registration order.
func (r *Registry) Prompts() []protocol.Prompt {
	out := make([]protocol.Prompt, len(r.prompts))
	for i, e := range r.prompts {
		out[i] = e.prompt
	}
	return out
}

// ResolveTool returns the handler registered under name.
func (r *Registry) ResolveTool(name string) (ToolHandler, bool) {
	i, ok := r.toolIndex[name]
	if !ok {
		return nil, false
	}
	return r.tools[i].handler, true
}

// ResolvePrompt returns the renderer registered under name.
func (r *Registry) ResolvePrompt(name string) (PromptRenderer, bool) {
	i, ok := r.promptIndex[name]
	if !ok {
		return nil, false
	}
	return r.prompts[i].render, true
}

// ResolveLegacy returns the handler behind a flat time/* method.
func (r *Registry) ResolveLegacy(method string) (ToolHandler, bool) {
	h, ok := r.legacy[method]
	return h, ok
}
