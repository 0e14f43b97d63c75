// Package apperr defines the sentinel errors shared across Ansuz layers.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an optimistic-concurrency check fails.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists is returned when creating a note at an occupied path.
	ErrAlreadyExists = errors.New("already exists")
)
