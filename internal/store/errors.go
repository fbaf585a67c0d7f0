package store

import (
	"errors"
	"fmt"
)

// ValidationError rejects a mutation before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistError means the in-memory change was applied but the durable write
// failed. Callers should treat it as a warning.
type PersistError struct {
	Slot string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Slot, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err only failed to reach durable storage.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err rejected the input.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
