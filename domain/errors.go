package domain

import "errors"

var (
	// ErrValidation marks input rejected before any mutation is attempted.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a record does not exist in the store.
	ErrNotFound        = errors.New("not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
)
