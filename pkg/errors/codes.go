package errors

// JSON-RPC 2.0 standard error codes. These are the only codes a
// well-behaved client should branch on.
const (
	// CodeParseError indicates invalid JSON was received by the server
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s)
	CodeInvalidParams int = -32602

	// CodeInternalError indicates internal JSON-RPC error
	CodeInternalError int = -32603
)

// Server-specific error codes. On the wire everything below collapses
// into CodeServerError (-32000); the finer codes classify errors
// internally for logging and metrics.
const (
	// Server errors (-32000 to -32099)
	CodeServerError     int = -32000 // Generic server-side failure (time formatting, IO)
	CodeServerInitError int = -32001 // Error during server startup
	CodeServerNotReady  int = -32002 // Request arrived before initialize

	// Authentication errors (-32100 to -32199)
	CodeUnauthorized int = -32100 // API key rejected
	CodeAuthRequired int = -32101 // API key missing

	// Operation errors (-32300 to -32399)
	CodeOperationCancelled int = -32300 // Context cancelled mid-operation
	CodeOperationTimeout   int = -32301 // Deadline exceeded

	// Transport errors (-32500 to -32599)
	CodeTransportError   int = -32500 // Generic transport error
	CodeConnectionFailed int = -32501 // Listener failed to start
	CodeConnectionLost   int = -32502 // Channel closed mid-stream

	// Validation errors (-32750 to -32799)
	CodeValidationError  int = -32750 // Generic validation error
	CodeMissingParameter int = -32751 // Required parameter missing
	CodeInvalidParameter int = -32752 // Parameter has invalid value

	// Clock-sync errors (-32850 to -32899)
	CodeSyncUnavailable int = -32850 // No SHM segment and no query tool
	CodeSegmentTorn     int = -32851 // SHM sequence counters never settled
	CodePeerQueryFailed int = -32852 // ntpq invocation failed
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeParseError:     {CodeParseError, "ParseError", "Invalid JSON was received", CategoryProtocol, SeverityError},
	CodeInvalidRequest: {CodeInvalidRequest, "InvalidRequest", "Invalid Request object", CategoryProtocol, SeverityError},
	CodeMethodNotFound: {CodeMethodNotFound, "MethodNotFound", "Method does not exist", CategoryProtocol, SeverityError},
	CodeInvalidParams:  {CodeInvalidParams, "InvalidParams", "Invalid method parameters", CategoryValidation, SeverityError},
	CodeInternalError:  {CodeInternalError, "InternalError", "Internal JSON-RPC error", CategoryInternal, SeverityError},

	CodeServerError:     {CodeServerError, "ServerError", "Server-side failure", CategoryInternal, SeverityError},
	CodeServerInitError: {CodeServerInitError, "ServerInitError", "Server initialization failed", CategoryInternal, SeverityCritical},
	CodeServerNotReady:  {CodeServerNotReady, "ServerNotReady", "Server not ready", CategoryInternal, SeverityError},

	CodeUnauthorized: {CodeUnauthorized, "Unauthorized", "API key rejected", CategoryAuth, SeverityError},
	CodeAuthRequired: {CodeAuthRequired, "AuthRequired", "Authentication required", CategoryAuth, SeverityError},

	CodeOperationCancelled: {CodeOperationCancelled, "OperationCancelled", "Operation cancelled", CategoryCancelled, SeverityInfo},
	CodeOperationTimeout:   {CodeOperationTimeout, "OperationTimeout", "Operation timed out", CategoryTimeout, SeverityError},

	CodeTransportError:   {CodeTransportError, "TransportError", "Transport error", CategoryTransport, SeverityError},
	CodeConnectionFailed: {CodeConnectionFailed, "ConnectionFailed", "Connection failed", CategoryTransport, SeverityCritical},
	CodeConnectionLost:   {CodeConnectionLost, "ConnectionLost", "Connection lost", CategoryTransport, SeverityError},

	CodeValidationError:  {CodeValidationError, "ValidationError", "Validation error", CategoryValidation, SeverityError},
	CodeMissingParameter: {CodeMissingParameter, "MissingParameter", "Required parameter missing", CategoryValidation, SeverityError},
	CodeInvalidParameter: {CodeInvalidParameter, "InvalidParameter", "Invalid parameter value", CategoryValidation, SeverityError},

	CodeSyncUnavailable: {CodeSyncUnavailable, "SyncUnavailable", "Clock-sync status unavailable", CategorySync, SeverityWarning},
	CodeSegmentTorn:     {CodeSegmentTorn, "SegmentTorn", "Shared-memory segment torn", CategorySync, SeverityWarning},
	CodePeerQueryFailed: {CodePeerQueryFailed, "PeerQueryFailed", "Peer query command failed", CategorySync, SeverityWarning},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetErrorCodeCategory returns the category of an error code
func GetErrorCodeCategory(code int) Category {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// GetErrorCodeSeverity returns the severity of an error code
func GetErrorCodeSeverity(code int) Severity {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Severity
	}
	return SeverityError
}

// IsStandardJSONRPCCode checks if a code is one of the five codes
// defined by the JSON-RPC 2.0 specification.
func IsStandardJSONRPCCode(code int) bool {
	switch code {
	case CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams, CodeInternalError:
		return true
	default:
		return false
	}
}
