package errors

import (
	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

// wireCode maps an internal error code onto the wire. The five
// standard JSON-RPC codes pass through; every server-specific code
// collapses into the generic -32000 band, which is all the original
// contract ever exposed.
func wireCode(code int) int {
	if IsStandardJSONRPCCode(code) {
		return code
	}
	return CodeServerError
}

// ToJSONRPCError converts any error to a JSON-RPC error object
func ToJSONRPCError(err error) *protocol.Error {
	if err == nil {
		return nil
	}

	if mcpErr, ok := AsMCPError(err); ok {
		return &protocol.Error{
			Code:    wireCode(mcpErr.Code()),
			Message: mcpErr.Error(),
			Data:    mcpErr.Data(),
		}
	}

	return &protocol.Error{
		Code:    CodeInternalError,
		Message: "Internal error: " + err.Error(),
	}
}

// ToJSONRPCResponse converts any error to a complete JSON-RPC error
// response for the given request id.
func ToJSONRPCResponse(err error, requestID interface{}) (*protocol.Response, error) {
	rpcErr := ToJSONRPCError(err)
	if rpcErr == nil {
		return nil, nil
	}
	return protocol.NewErrorResponse(requestID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
}

// FromJSONRPCError converts a JSON-RPC error object back into an
// MCPError, recovering category and severity from the code registry.
func FromJSONRPCError(jsonrpcErr *protocol.Error) MCPError {
	if jsonrpcErr == nil {
		return nil
	}

	category := GetErrorCodeCategory(jsonrpcErr.Code)
	severity := GetErrorCodeSeverity(jsonrpcErr.Code)

	err := NewError(jsonrpcErr.Code, jsonrpcErr.Message, category, severity)
	if jsonrpcErr.Data != nil {
		err = err.WithData(jsonrpcErr.Data)
	}

	return err
}
