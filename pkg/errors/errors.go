// Package errors provides structured error types for labelsheet.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Field-attributed validation issues with a severity
//
// # Error Codes
//
// Template validation codes are either blocking (VALUE_INVALID,
// VALUE_NEGATIVE, GRID_INVALID, LAYOUT_EXCEEDS_PAGE) or warnings
// (GRID_TOO_LARGE, LABEL_TOO_SMALL). Runtime codes cover the catalog source
// and the caches.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "no items selected")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSourceUnavailable, origErr, "fetch sets")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Template validation, blocking
	ErrCodeValueInvalid      Code = "VALUE_INVALID"
	ErrCodeValueNegative     Code = "VALUE_NEGATIVE"
	ErrCodeGridInvalid       Code = "GRID_INVALID"
	ErrCodeLayoutExceedsPage Code = "LAYOUT_EXCEEDS_PAGE"

	// Template validation, warnings
	ErrCodeGridTooLarge  Code = "GRID_TOO_LARGE"
	ErrCodeLabelTooSmall Code = "LABEL_TOO_SMALL"

	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeUnknownPreset Code = "UNKNOWN_PRESET"

	// Resource errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeNetwork           Code = "NETWORK_ERROR"
	ErrCodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	ErrCodeCacheWriteFailed  Code = "CACHE_WRITE_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code    // Machine-readable error code
	Message string  // Human-readable message
	Cause   error   // Underlying error (optional)
	Issues  []Issue // Validation issues that produced this error (optional)
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

// GetIssues returns the validation issues attached to err, if any.
func GetIssues(err error) []Issue {
	var e *Error
	if errors.As(err, &e) {
		return e.Issues
	}
	return nil
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
