package errors

// StdioTransportError creates an error for STDIO channel failures
func StdioTransportError(operation string, err error) MCPError {
	return WrapErrorf(err, CodeTransportError, CategoryTransport, SeverityError,
		"stdio transport %s failed", operation).
		WithContext(&Context{
			Component: "transport",
			Operation: operation,
		})
}

// HTTPTransportError creates an error for HTTP surface failures
func HTTPTransportError(operation string, err error) MCPError {
	return WrapErrorf(err, CodeTransportError, CategoryTransport, SeverityError,
		"http transport %s failed", operation).
		WithContext(&Context{
			Component: "health",
			Operation: operation,
		})
}

// ConnectionFailed creates an error for listeners that never came up
func ConnectionFailed(addr string, err error) MCPError {
	return WrapErrorf(err, CodeConnectionFailed, CategoryTransport, SeverityCritical,
		"failed to listen on %s", addr)
}

// ConnectionLost creates an error for channels that died mid-stream.
// EOF on stdin is NOT a connection loss; it is a clean shutdown.
func ConnectionLost(channel string, err error) MCPError {
	return WrapErrorf(err, CodeConnectionLost, CategoryTransport, SeverityError,
		"%s channel closed unexpectedly", channel)
}
