// Package errors provides structured error types for clocktree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the web host and the TUI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Diagram errors mirror the failure modes of a rebuild or an update:
//   - MALFORMED_TOPOLOGY: a node references a parent that does not exist,
//     or the parent links do not form a tree. Fatal for that rebuild.
//   - MALFORMED_RATIO: a selected option is not of the form "1/N".
//     Propagation is a no-op and prior frequencies are kept.
//   - DEGENERATE_CONTAINER: the host container has no usable size.
//     Callers clamp the scale instead of failing.
//   - MISSING_NODE: an id does not exist in the current node set.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedRatio, "option %q is not 1/N", text)
//	if errors.Is(err, errors.ErrCodeMalformedRatio) {
//	    // keep previous frequencies
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedTopology, origErr, "build %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Diagram errors
	ErrCodeMalformedTopology   Code = "MALFORMED_TOPOLOGY"
	ErrCodeMalformedRatio      Code = "MALFORMED_RATIO"
	ErrCodeDegenerateContainer Code = "DEGENERATE_CONTAINER"
	ErrCodeMissingNode         Code = "MISSING_NODE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// HTTPStatus maps an error code to the status the web host answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeMalformedRatio, ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath:
		return 400
	case ErrCodeMissingNode, ErrCodeNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeMalformedTopology:
		return 422
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
