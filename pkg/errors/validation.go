package errors

import "fmt"

// ParameterErrorData carries structured data for parameter errors
type ParameterErrorData struct {
	Parameter string      `json:"parameter"`
	Value     interface{} `json:"value,omitempty"`
	Required  bool        `json:"required,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// MissingParameter creates an error for missing required parameters.
// Wire messages keep the original contract's phrasing, e.g.
// "Invalid parameters: timezone required".
func MissingParameter(param string) MCPError {
	return NewError(
		CodeInvalidParams,
		fmt.Sprintf("Invalid parameters: %s required", param),
		CategoryValidation,
		SeverityError,
	).WithData(&ParameterErrorData{
		Parameter: param,
		Required:  true,
	})
}

// InvalidParameter creates an error for parameter values the handler
// rejected, e.g. "Invalid parameters: Invalid timezone: Mars/Olympus".
func InvalidParameter(param string, reason string) MCPError {
	return NewError(
		CodeInvalidParams,
		fmt.Sprintf("Invalid parameters: %s", reason),
		CategoryValidation,
		SeverityError,
	).WithData(&ParameterErrorData{
		Parameter: param,
		Reason:    reason,
	})
}

// InvalidParameterf creates an invalid-parameter error with formatting
func InvalidParameterf(param string, format string, args ...interface{}) MCPError {
	return InvalidParameter(param, fmt.Sprintf(format, args...))
}

// InvalidTimezone creates the error for unresolvable IANA zone names
func InvalidTimezone(tz string) MCPError {
	return InvalidParameterf("timezone", "Invalid timezone: %s", tz)
}

// ValidationError creates a generic validation error outside the wire
// contract paths.
func ValidationError(message string) MCPError {
	return NewError(CodeValidationError, message, CategoryValidation, SeverityError)
}
