package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Operation error codes
const (
	ErrTargetNotFound    ErrorCode = "TARGET_NOT_FOUND"
	ErrInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	ErrUnknownOperation  ErrorCode = "UNKNOWN_OPERATION"
	ErrSessionNotActive  ErrorCode = "SESSION_NOT_ACTIVE"
	ErrPersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrInternalError     ErrorCode = "INTERNAL_ERROR"
)

// Transport error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrTimeout        ErrorCode = "TIMEOUT"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Operation  string    `json:"operation,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so errors.Is works against
// bare code values such as NewError(ErrTargetNotFound, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithOperation records the tool operation that produced the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// AsError extracts *Error from any error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode checks whether the error chain carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e, ok := AsError(err); ok {
		return e.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// WrapError converts an arbitrary error into *Error, keeping existing codes.
func WrapError(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	return NewError(code, message).WithCause(err)
}

// =============================================================================
// Common constructors
// =============================================================================

// NewTargetNotFoundError reports an unknown session, chain, cycle or entity id.
func NewTargetNotFoundError(kind, id string) *Error {
	return Errorf(ErrTargetNotFound, "%s %q not found", kind, id)
}

// NewInvalidArgumentError reports a missing or malformed argument.
func NewInvalidArgumentError(field, reason string) *Error {
	return Errorf(ErrInvalidArgument, "invalid argument %q: %s", field, reason)
}

// NewUnknownOperationError reports an unrecognized tool or action name.
func NewUnknownOperationError(name string) *Error {
	return Errorf(ErrUnknownOperation, "unknown operation %q", name)
}

// NewSessionNotActiveError reports an intervention on a session that is not waiting for input.
func NewSessionNotActiveError(id, status string) *Error {
	return Errorf(ErrSessionNotActive, "session %q is %s, not awaiting user input", id, status)
}
