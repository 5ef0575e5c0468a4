package errors

import "fmt"

// ParseError creates an error for malformed JSON input
func ParseError(detail string) MCPError {
	err := NewError(CodeParseError, "Parse error", CategoryProtocol, SeverityError)
	if detail != "" {
		err = err.WithDetail(detail)
	}
	return err
}

// InvalidRequest creates an error for structurally invalid requests
// (wrong jsonrpc version, missing or non-string method).
func InvalidRequest(reason string) MCPError {
	err := NewError(CodeInvalidRequest, "Invalid request", CategoryProtocol, SeverityError)
	if reason != "" {
		err = err.WithDetail(reason)
	}
	return err
}

// MethodNotFound creates an error for unrecognized method names
func MethodNotFound(method string) MCPError {
	return NewError(
		CodeMethodNotFound,
		fmt.Sprintf("Method not found: %s", method),
		CategoryProtocol,
		SeverityError,
	)
}

// UnknownPrompt creates the protocol-level error for prompts/get with
// an unregistered name. Unknown tools take the other branch of the
// failure contract: a flagged result, never this error.
func UnknownPrompt(name string) MCPError {
	return NewError(
		CodeInvalidParams,
		fmt.Sprintf("Invalid parameters: Unknown prompt: %s", name),
		CategoryValidation,
		SeverityError,
	)
}

// InternalError wraps an unexpected failure as a JSON-RPC internal error
func InternalError(err error) MCPError {
	if err == nil {
		return NewError(CodeInternalError, "Internal error", CategoryInternal, SeverityError)
	}
	return WrapError(err, CodeInternalError, "Internal error", CategoryInternal, SeverityError).
		WithDetail(err.Error())
}

// InternalErrorf creates an internal error with a formatted message
func InternalErrorf(format string, args ...interface{}) MCPError {
	return NewErrorf(CodeInternalError, CategoryInternal, SeverityError, format, args...)
}

// ServerNotReady creates an error for requests that need a completed
// initialize handshake.
func ServerNotReady(method string) MCPError {
	return NewError(
		CodeServerNotReady,
		"Server not initialized",
		CategoryInternal,
		SeverityError,
	).WithContext(&Context{Method: method})
}
