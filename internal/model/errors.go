package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnsupported    = errors.New("unsupported operation")
	ErrAdapter        = errors.New("adapter failure")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Retryable  bool   `json:"-"` // Only meaningful for adapter errors
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewAuthorizationError creates a 403 error for ownership mismatches.
func NewAuthorizationError(reason string) *APIError {
	return &APIError{
		Code:       "AUTHORIZATION_ERROR",
		Message:    reason,
		StatusCode: 403,
		Err:        ErrUnauthorized,
	}
}

// NewInvalidStateError creates a 409 error for transitions attempted from a
// terminal or incompatible negotiation state. Signals an ordering bug upstream.
func NewInvalidStateError(reason string) *APIError {
	return &APIError{
		Code:       "INVALID_STATE",
		Message:    reason,
		StatusCode: 409,
		Err:        ErrInvalidState,
	}
}

// NewAdapterError creates a 5xx-class error for marketplace/runtime failures.
// Retryable failures (network, timeouts, 5xx upstream) map to 503; the rest to 502.
// Retries are always the caller's responsibility.
func NewAdapterError(service string, err error, retryable bool) *APIError {
	status := 502
	if retryable {
		status = 503
	}
	return &APIError{
		Code:       "ADAPTER_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: status,
		Retryable:  retryable,
		Err:        fmt.Errorf("%w: %v", ErrAdapter, err),
	}
}

// NewUnsupportedError creates a 501 error for intentionally unimplemented operations.
func NewUnsupportedError(operation string) *APIError {
	return &APIError{
		Code:       "UNSUPPORTED_OPERATION",
		Message:    fmt.Sprintf("%s is not supported", operation),
		StatusCode: 501,
		Err:        ErrUnsupported,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// IsRetryable reports whether err is an adapter error the caller may retry.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}
