// Package transport carries JSON-RPC messages between clients and the
// protocol dispatcher over the server's two channels.
//
// # STDIO
//
// StdioTransport reads newline-delimited requests from standard input
// and writes responses to standard output, strictly in arrival order:
// the single client on this channel pairs responses to requests by
// position as much as by id, so the loop never reads ahead of an
// unanswered message. End of stream shuts the channel down cleanly;
// an I/O failure shuts it down with an error. There is no
// server-initiated cancellation on this channel; the client owns its
// lifetime.
//
// # HTTP
//
// JSONRPCHandler serves the same dispatcher as an http.Handler: one
// envelope per POST body. It is mounted on the health server's mux
// and inherits net/http's concurrent request model; handlers share
// nothing mutable, so no coordination is needed.
//
// Both channels hand bytes to a Handler and write back whatever it
// returns. Nil means notification: nothing is written, which on HTTP
// degrades to a bare 202.
package transport
