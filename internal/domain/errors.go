package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced id does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when an entity invariant is violated
	ErrInvalidInput = errors.New("invalid input")

	// ErrOperationFailed is returned when the storage layer could not
	// complete an otherwise valid operation
	ErrOperationFailed = errors.New("operation failed")
)

// ValidationError reports the first violated entity invariant.
// It unwraps to ErrInvalidInput so callers can dispatch with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func newValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
