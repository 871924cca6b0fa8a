package repository

import (
	"context"

	"carpool/internal/domain"
)

// JoinKey is the natural key of a join request. Empty ids match any value
// when looking up an existing request; the target always has to match.
type JoinKey struct {
	UserID  string
	Target  domain.ParentType
	TripID  string
	OfferID string
}

// JoinRepository defines the persistence operations for join requests.
type JoinRepository interface {
	// Insert stores a new join unless one with the same natural key exists.
	// Returns ErrDuplicate in that case.
	Insert(ctx context.Context, join *domain.JoinRequest) error

	// FindExisting returns the oldest join matching key, or ErrNotFound.
	FindExisting(ctx context.Context, key JoinKey) (*domain.JoinRequest, error)

	// GetByID retrieves a join by ID.
	GetByID(ctx context.Context, id string) (*domain.JoinRequest, error)

	// GetByIDForUpdate retrieves a join and locks its row for the rest of
	// the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.JoinRequest, error)

	// Transition moves a join out of from into to, recording seatsReserved.
	// Returns ErrConditionFailed when the join is no longer in from.
	Transition(ctx context.Context, id string, from, to domain.JoinStatus, seatsReserved int) error

	// AcceptedOfferForTrip returns the offer id of an accepted join on
	// tripID that has one, or "" when none does.
	AcceptedOfferForTrip(ctx context.Context, tripID string) (string, error)

	// HasAcceptedForTrip reports whether any join on tripID is accepted.
	HasAcceptedForTrip(ctx context.Context, tripID string) (bool, error)

	// HasAcceptedForOffer reports whether any join on offerID is accepted.
	HasAcceptedForOffer(ctx context.Context, offerID string) (bool, error)

	// ListByUserAndParentForUpdate returns the joins userID made against the
	// given trip or offer and locks them for the rest of the enclosing transaction.
	ListByUserAndParentForUpdate(ctx context.Context, userID string, parent domain.ParentType, parentID string) ([]*domain.JoinRequest, error)

	// ListUnlinked returns joins missing exactly one of trip or offer.
	ListUnlinked(ctx context.Context) ([]*domain.JoinRequest, error)

	// LinkTrip sets the trip of a join whose trip is still unknown.
	// Returns false when the join already had one.
	LinkTrip(ctx context.Context, id, tripID string) (bool, error)

	// LinkOffer sets the offer of a join whose offer is still unknown.
	// Returns false when the join already had one.
	LinkOffer(ctx context.Context, id, offerID string) (bool, error)

	// DeleteByIDs removes the given joins.
	DeleteByIDs(ctx context.Context, ids []string) error
}
