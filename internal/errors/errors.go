// Package errors defines the coded business errors surfaced by the
// monitoring pipeline. Callers match on the stable Code, not the message.
package errors

import (
	"errors"
	"fmt"
)

// Error is a business error with a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so predeclared errors work with errors.Is
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy with a replaced message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Code: e.Code, Message: message, Cause: e.Cause}
}

// WithMessagef returns a copy with a formatted message.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithCause returns a copy carrying the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Cause: cause}
}

// New creates a coded error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Predeclared errors, one per failure class in the pipeline.
var (
	// ErrRateLimited rejects a request before any side effect.
	ErrRateLimited = New("RATE_LIMIT", "rate limit exceeded")

	// ErrValidation rejects malformed input before any persistence.
	ErrValidation = New("VALIDATION_ERROR", "invalid request")

	// ErrRPCUnavailable means the node could not be reached; callers must
	// treat the result as unknown, never as a verdict.
	ErrRPCUnavailable = New("RPC_UNAVAILABLE", "node rpc unavailable")

	// ErrPersistence means a transactional failure; the unit of work was
	// rolled back and retrying is the caller's choice.
	ErrPersistence = New("PERSISTENCE_ERROR", "database operation failed")

	// ErrNotification means a webhook or broker dispatch failed. It is
	// logged, never propagated to the request path.
	ErrNotification = New("NOTIFICATION_ERROR", "alert notification failed")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = New("NOT_FOUND", "entity not found")

	// ErrDuplicate means a unique constraint rejected an insert; the
	// existing row is untouched.
	ErrDuplicate = New("DUPLICATE", "entity already exists")

	// ErrInternal is the generic fallback exposed to callers instead of
	// raw internal errors.
	ErrInternal = New("INTERNAL_ERROR", "internal error")
)

// CodeOf extracts the stable code from an error chain, or INTERNAL_ERROR
// when the chain carries no coded error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}
