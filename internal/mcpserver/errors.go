package mcpserver

import "fmt"

// ErrorCode tells an assistant whether retrying with other arguments can help.
type ErrorCode string

const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// ToolError is returned from tool handlers. The SDK hands its text to the
// client as a result with isError set.
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Details == "" {
		return msg
	}
	return msg + " (" + e.Details + ")"
}

func invalidInput(msg, details string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg, Details: details}
}

func databaseError(operation string, err error) *ToolError {
	return &ToolError{Code: ErrDatabaseError, Message: fmt.Sprintf("%s failed", operation), Details: err.Error()}
}

func internalError(msg string, err error) *ToolError {
	return &ToolError{Code: ErrInternalError, Message: msg, Details: err.Error()}
}
