// Package client is a minimal JSON-RPC 2.0 client for the time
// server's newline-delimited transport. It exists for integration
// tests and for embedding the server in other Go programs; agent
// frameworks normally spawn the binary and speak the protocol
// directly.
//
// The transport answers requests strictly in the order they were
// sent, so the client pairs each call with the next line read from
// the stream instead of tracking pending requests by id.
package client
