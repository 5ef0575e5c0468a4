// Package server implements the protocol core of the time server: a
// JSON-RPC 2.0 dispatcher in front of an immutable tool and prompt
// registry.
//
// # Dispatch
//
// Dispatch turns one raw message into at most one response. Methods
// fall into five families:
//
//   - Lifecycle: initialize (capability handshake) and ping
//   - Tools: tools/list and tools/call
//   - Prompts: prompts/list and prompts/get
//   - Legacy: the flat time/* namespace kept for pre-MCP clients
//   - Notifications: anything under notifications/, acknowledged but
//     never answered
//
// Anything else is answered with -32601. A request whose id is null
// or absent is a notification: its handler still runs, but the
// response is suppressed, success or failure alike. Parse errors and
// structurally invalid requests are the one exception; they are
// reported best-effort so a broken client has something to debug.
//
// # Failure contract
//
// Tool execution failures split two ways. An unknown tool name comes
// back as a successful tools/call result flagged isError, because the
// call itself was well-formed. Everything the handler rejects is a
// protocol error: missing or invalid arguments map to -32602, format
// strings the strftime interpreter rejects map to the -32000 server
// band, and a handler panic maps to -32603 without taking down the
// read loop. Unknown prompt names are -32602, unlike unknown tools.
//
// # Building a server
//
//	srv := server.New(
//	    server.WithVersion("1.2.3"),
//	    server.WithLogger(logger),
//	    server.WithMonitor(monitor),
//	)
//
//	// One message in, zero or one message out.
//	out := srv.HandleMessage(ctx, line)
//
// The registry is built inside New and frozen before it returns;
// concurrent transports read it without synchronization.
package server
