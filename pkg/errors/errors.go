// Package errors provides structured error types for the boardsnap application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map to the failure taxonomy of the comparison pipeline:
//   - INVALID_*: Input validation failures
//   - SOURCE_UNAVAILABLE: a snapshot source (zip archive, git revision) cannot be read
//   - RENDER_FAILED / INVALID_IMAGE: a single render target failed; other targets continue
//   - TARGET_UNAVAILABLE: neither side of a comparison holds the target's document
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSourceUnavailable, "open archive %s", path)
//	if errors.Is(err, errors.ErrCodeSourceUnavailable) {
//	    // Handle unreadable source
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRenderFailed, origErr, "export %s", target)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidProject Code = "INVALID_PROJECT"
	ErrCodeInvalidSource  Code = "INVALID_SOURCE"

	// Snapshot source errors
	ErrCodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"

	// Render pipeline errors, scoped to a single target
	ErrCodeRenderFailed      Code = "RENDER_FAILED"
	ErrCodeInvalidImage      Code = "INVALID_IMAGE"
	ErrCodeTargetUnavailable Code = "TARGET_UNAVAILABLE"

	// External tool errors
	ErrCodeToolNotFound Code = "TOOL_NOT_FOUND"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Resource not found errors
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeTargetNotFound  Code = "TARGET_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
