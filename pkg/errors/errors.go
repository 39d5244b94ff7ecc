// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeMalformedFrame  = "MALFORMED_FRAME"
	CodeMalformedState  = "MALFORMED_STATE"
	CodeNotAThreadChunk = "NOT_A_THREAD_CHUNK"
	CodeParseError      = "PARSE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeStorageError    = "STORAGE_ERROR"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeConfigError     = "CONFIG_ERROR"
	CodeNotFound        = "NOT_FOUND"
)

// AppError represents an application error with a code and message.
// Detail carries the offending input, e.g. the line that failed to parse.
type AppError struct {
	Code    string
	Message string
	Detail  string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" %q", e.Detail)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail returns a copy of the error carrying the given detail.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Common error instances.
var (
	ErrMalformedFrame  = New(CodeMalformedFrame, "malformed stack frame")
	ErrMalformedState  = New(CodeMalformedState, "malformed thread state")
	ErrNotAThreadChunk = New(CodeNotAThreadChunk, "not a thread chunk")
	ErrParseError      = New(CodeParseError, "parse error")
	ErrInvalidInput    = New(CodeInvalidInput, "invalid input")
	ErrStorageError    = New(CodeStorageError, "storage error")
	ErrDatabaseError   = New(CodeDatabaseError, "database error")
	ErrConfigError     = New(CodeConfigError, "configuration error")
	ErrNotFound        = New(CodeNotFound, "resource not found")
)

// IsMalformedFrame checks if the error is a malformed frame error.
func IsMalformedFrame(err error) bool {
	return errors.Is(err, ErrMalformedFrame)
}

// IsMalformedState checks if the error is a malformed state error.
func IsMalformedState(err error) bool {
	return errors.Is(err, ErrMalformedState)
}

// IsNotAThreadChunk checks if the error marks a chunk that is not a thread record.
func IsNotAThreadChunk(err error) bool {
	return errors.Is(err, ErrNotAThreadChunk)
}

// IsStorageError checks if the error is a storage error.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageError)
}

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// GetErrorDetail extracts the detail from an error, if it has one.
func GetErrorDetail(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	return ""
}
