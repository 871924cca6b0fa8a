package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// OfferFilter selects search candidates for riders looking for a seat.
type OfferFilter struct {
	Date         time.Time
	MinSeats     int
	PetsRequired bool
}

// OfferRepository defines the persistence operations for offers.
type OfferRepository interface {
	// Create persists a new offer.
	Create(ctx context.Context, offer *domain.Offer) error

	// GetByID retrieves an offer by ID.
	GetByID(ctx context.Context, id string) (*domain.Offer, error)

	// GetByIDForUpdate retrieves an offer and locks its row for the
	// rest of the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Offer, error)

	// ListByUser returns the offers owned by userID with their accepted passenger counts.
	ListByUser(ctx context.Context, userID string) ([]*domain.OwnedOffer, error)

	// ListOnDate returns every offer on the given day, oldest first.
	ListOnDate(ctx context.Context, date time.Time) ([]*domain.Offer, error)

	// ListForSearch returns offers passing the filter.
	ListForSearch(ctx context.Context, filter OfferFilter) ([]*domain.Offer, error)

	// ListJoinedBy returns offers userID has a join request on.
	ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedOffer, error)

	// Update updates an existing offer, seats included.
	Update(ctx context.Context, offer *domain.Offer) error

	// ReserveSeats takes n seats from the offer only if at least n remain.
	// Returns ErrConditionFailed when there are not enough seats.
	ReserveSeats(ctx context.Context, id string, n int) error

	// ReleaseSeats returns n seats to the offer.
	ReleaseSeats(ctx context.Context, id string, n int) error

	// Delete removes an offer.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes offers whose expiry date is before day.
	DeleteExpired(ctx context.Context, day time.Time) (int64, error)
}
