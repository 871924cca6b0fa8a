package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// TripFilter selects search candidates for drivers looking for riders.
type TripFilter struct {
	Date          time.Time
	MaxPeople     int    // trips needing more seats are skipped
	PetsRequired  bool   // only trips with pets when set
	ExcludeUserID string // never return the caller's own trips
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// ListByUser returns the trips owned by userID, soonest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Trip, error)

	// ListByUserOnDate returns userID's trips on the given day, oldest first.
	ListByUserOnDate(ctx context.Context, userID string, date time.Time) ([]*domain.Trip, error)

	// ListForSearch returns unmatched trips passing the filter.
	ListForSearch(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// ListJoinedBy returns trips userID has a join request on.
	ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedTrip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// Delete removes a trip.
	Delete(ctx context.Context, id string) error

	// DeleteBefore removes trips dated before day and returns how many went.
	DeleteBefore(ctx context.Context, day time.Time) (int64, error)
}
