// Package errors provides structured error types for xmlbridge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the export pipeline
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - UNKNOWN_* / NOT_FOUND: Missing schema types or records
//   - Graph errors (AMBIGUOUS_KEY, UNRESOLVED_REFERENCE, CYCLIC_GRAPH):
//     the entity graph cannot be decomposed; these are never retryable
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownType, "type %q is not registered", name)
//	if errors.Is(err, errors.ErrCodeUnknownType) {
//	    // Handle schema mismatch
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "load %s", typeName)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidType       Code = "INVALID_TYPE"
	ErrCodeInvalidID         Code = "INVALID_ID"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidDescriptor Code = "INVALID_DESCRIPTOR"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUnknownType  Code = "UNKNOWN_TYPE"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Graph decomposition errors
	ErrCodeAmbiguousKey        Code = "AMBIGUOUS_KEY"
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeCyclicGraph         Code = "CYCLIC_GRAPH"

	// Backend errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// IsGraphError reports whether err stems from an entity graph that cannot be
// decomposed. Such errors indicate a schema/data mismatch and must not be
// retried.
func IsGraphError(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnknownType, ErrCodeAmbiguousKey, ErrCodeUnresolvedReference, ErrCodeCyclicGraph:
		return true
	}
	return false
}
