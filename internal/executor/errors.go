package executor

import (
	"errors"
	"fmt"
)

// Error represents a failure of an executor operation.
//
// The code partitions the taxonomy the public API documents; the message
// carries the specifics. Middleware failures that abort a cycle are
// wrapped with ErrCodeMiddleware and keep the cause reachable through
// errors.Unwrap.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// ErrorCode categorizes executor errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument: a required parameter was nil, empty or out
	// of range, or the executor is not initialized.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeCapacityExceeded: an add on a full handle table.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeNotFound: a remove with an unregistered reference.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeMiddleware: a fatal middleware failure aborted the cycle.
	ErrCodeMiddleware ErrorCode = "MIDDLEWARE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// IsInvalidArgument reports whether err is an invalid-argument error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsCapacityExceeded reports whether err is a capacity error.
func IsCapacityExceeded(err error) bool { return hasCode(err, ErrCodeCapacityExceeded) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func invalidArgument(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func capacityExceeded(capacity int) *Error {
	return &Error{
		Code:    ErrCodeCapacityExceeded,
		Message: fmt.Sprintf("handle table full (capacity %d)", capacity),
	}
}

func notFound(kind Kind) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("no registered %s matches the given reference", kind),
	}
}

func middlewareError(msg string, cause error) *Error {
	return &Error{Code: ErrCodeMiddleware, Message: msg, Cause: cause}
}
