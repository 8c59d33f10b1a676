package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the agent.
type ErrorCode string

// Session error codes
const (
	ErrConfiguration      ErrorCode = "CONFIGURATION"
	ErrNotReady           ErrorCode = "NOT_READY"
	ErrUnclassified       ErrorCode = "UNCLASSIFIED"
	ErrReasoning          ErrorCode = "REASONING_FAILURE"
	ErrInteractionLost    ErrorCode = "INTERACTION_LOST"
	ErrTimeout            ErrorCode = "TIMEOUT"
	ErrInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrMalformedOutput    ErrorCode = "MALFORMED_OUTPUT"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Cause     error     `json:"-"`

	// 上游返回的 HTTP 状态码
	HTTPStatus int `json:"http_status,omitempty"`
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

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error, or anything it wraps, is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrTimeoutExceeded is wrapped by every error raised because a wait ran out
// of time or was cancelled by the caller.
var ErrTimeoutExceeded = errors.New("timeout exceeded")
