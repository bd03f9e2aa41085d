// Package domainerrors defines the error taxonomy shared by all services.
//
// Services return these code-carrying errors so transport layers can map them
// to HTTP statuses without inspecting error strings. Stores return sentinel
// errors (pkg/platform/sentinel) and services translate them here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and for HTTP mapping.
type Code string

const (
	// CodeNotFound means the referenced doctor/candidate/entry is absent.
	CodeNotFound Code = "not_found"
	// CodeInvalidState means the operation was attempted from a status that
	// forbids it (e.g. suspending an already-suspended doctor).
	CodeInvalidState Code = "invalid_state"
	// CodeValidation means required fields are missing or malformed on create/update.
	CodeValidation Code = "validation_error"
	// CodeConflict means a concurrent mutation or uniqueness violation was detected.
	CodeConflict Code = "conflict"
	// CodeBadRequest means the request body or parameters could not be interpreted.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized means the caller presented no or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is authenticated but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeTimeout means the operation was abandoned before completion.
	CodeTimeout Code = "timeout"
	// CodeInternal is an unexpected failure; details are logged, not surfaced.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode, reading naturally at call sites:
//
//	if dErrors.Is(err, dErrors.CodeNotFound) { ... }
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal if err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the user-safe message carried by err, or empty if err is
// not a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
