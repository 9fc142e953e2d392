package core

import (
	"errors"
	"fmt"
)

// ValidationError names the setting or message field that is wrong.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s: %s (got %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue also records the rejected value.
func NewValidationErrorWithValue(field, message string, value any) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ProviderError is a delivery failure reported by a transport.
type ProviderError struct {
	Provider    string
	Code        string
	Message     string
	StatusCode  int // HTTP status, for API transports
	IsRetryable bool
	Cause       error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches a ProviderError with the same provider and code.
func (e *ProviderError) Is(target error) bool {
	pe, ok := target.(*ProviderError)
	return ok && e.Provider == pe.Provider && e.Code == pe.Code
}

// Retryable reports whether another attempt may succeed.
func (e *ProviderError) Retryable() bool {
	return e.IsRetryable
}

// NewProviderError returns a permanent failure.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message}
}

// NewRetryableProviderError returns a failure worth retrying.
func NewRetryableProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message, IsRetryable: true}
}

// IsRetryable reports whether any error in err's chain says it is retryable.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

// StatusRetryable reports whether an HTTP status is worth retrying:
// rate limiting and server errors.
func StatusRetryable(status int) bool {
	return status == 429 || status >= 500
}
