package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError rejects a request before any store mutation happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProbeError wraps an upstream product fetch failure with enough detail for
// a human-readable message.
type ProbeError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProbeError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("probe failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("probe failed: %s", e.Message)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
