package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrConditionFailed is returned when a guarded update matched no row
	// because its precondition no longer holds.
	ErrConditionFailed = errors.New("update precondition not met")
)
