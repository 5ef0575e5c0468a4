package errors

import "fmt"

// TimeError wraps a failure inside the time service, typically a
// format string the strftime interpreter rejected. These surface on
// the wire in the generic server band ("Time error: ..."), not as
// invalid params; bad timezones do map to invalid params. The split
// mirrors the original contract.
func TimeError(err error) MCPError {
	return WrapErrorf(err, CodeServerError, CategoryTime, SeverityError,
		"Time error: %v", err)
}

// TimeErrorf creates a time-service error with a formatted message
func TimeErrorf(format string, args ...interface{}) MCPError {
	return NewErrorf(CodeServerError, CategoryTime, SeverityError,
		"Time error: %s", fmt.Sprintf(format, args...))
}
