package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies the failures the acquisition pipeline can produce
type ErrorType string

const (
	ErrorTypeBusy          ErrorType = "busy"
	ErrorTypeInvalidParams ErrorType = "invalid_params"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeNoResults     ErrorType = "no_results"
	ErrorTypeDecode        ErrorType = "decode"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error carries a type alongside the human-readable message so callers can
// branch on the failure kind without string matching
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error with a plain message
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf extracts the ErrorType from err, or ErrorTypeUnknown if err is not
// a typed error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is returns true when err is a typed error of the given type
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// IsBusy reports whether err is a single-flight rejection
func IsBusy(err error) bool { return Is(err, ErrorTypeBusy) }

// IsInvalidParams reports whether err is a parameter validation failure
func IsInvalidParams(err error) bool { return Is(err, ErrorTypeInvalidParams) }

// IsNotFound reports whether err is an asset or metadata lookup miss
func IsNotFound(err error) bool { return Is(err, ErrorTypeNotFound) }

// IsRetryable checks if an error type should be retried. Only transient
// network failures qualify; decode, storage and parameter failures won't
// change on a second attempt.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	default:
		return statusCode >= 500
	}
}
