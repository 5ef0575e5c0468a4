// Package pkg groups the building blocks of the UTC time server.
//
// The server answers time, timezone, and clock-synchronization queries
// for AI agents over MCP (JSON-RPC 2.0 on stdio) and mirrors the same
// queries over plain HTTP for infrastructure callers.
//
// # Sub-packages
//
//   - protocol: JSON-RPC 2.0 envelope and MCP message shapes
//   - server: method dispatch, the tool and prompt registry, handlers
//   - transport: the stdio channel and the JSON-RPC HTTP endpoint
//   - health: HTTP surface with /health, /metrics, the REST API and /mcp
//   - timesvc: time capture, strftime rendering, timezone conversion
//   - ntp: clock-sync observation via shared memory and ntpq
//   - client: minimal JSON-RPC client for tests and embedding
//   - config: environment-driven configuration
//   - auth: static API key validation for the HTTP surface
//   - errors: error taxonomy with JSON-RPC code mapping
//   - logging: structured stderr logging (stdout belongs to the wire)
//   - observability: Prometheus metrics and OpenTelemetry tracing
//   - utils: schema introspection and test helpers
//
// # Serving
//
// The mcp-time-server command under cmd/ wires these together:
//
//	srv := server.New(server.WithLogger(logger), server.WithMonitor(monitor))
//	stdio := transport.NewStdioTransport(srv)
//	_ = stdio.Start(ctx)
//
// The HTTP surface runs from the same Server value through
// health.New, so both channels answer from one registry.
package pkg
