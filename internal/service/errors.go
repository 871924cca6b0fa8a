package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrForbidden is returned when the caller may not act on the trip, offer or join,
	// including attempts to join their own trip or offer.
	ErrForbidden = errors.New("forbidden")

	// ErrCapacityExceeded is returned when an offer has fewer seats than a join needs.
	ErrCapacityExceeded = errors.New("not enough seats available")

	// ErrJoinNotPending is returned when accepting or rejecting a join that is already decided.
	ErrJoinNotPending = errors.New("join request is not pending")

	// ErrTripAlreadyMatched is returned when a trip already has an accepted join.
	ErrTripAlreadyMatched = errors.New("trip already has an accepted join")

	// ErrTripLocked is returned when editing a trip that has an accepted join.
	ErrTripLocked = errors.New("trip cannot be changed after a join was accepted")

	// ErrSeatsManaged is returned when changing seats of an offer with accepted joins.
	ErrSeatsManaged = errors.New("seats are managed by accepted joins")

	// ErrInvalidParentType is returned when a parent type is neither trip nor offer.
	ErrInvalidParentType = errors.New("invalid parent type")

	// ErrInvalidUserID is returned when the caller's user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists field-level problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
