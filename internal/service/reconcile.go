package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// SweepResult summarises a full reconciliation pass.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Linked  int `json:"linked"`
	Failed  int `json:"failed"`
}

// Reconciler fills in the missing trip or offer of join requests once a
// counterpart exists on the same route and day.
//
// A join on an offer gets the requester's matching trip; a join on a trip
// gets the earliest offer on the trip's route and day. Links are only ever
// added, never changed, so running it again is a no-op.
type Reconciler struct {
	repos  repository.Repositories
	logger zerolog.Logger
}

// NewReconciler creates a new Reconciler over non-transactional repositories.
func NewReconciler(repos repository.Repositories, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		repos:  repos,
		logger: logger.With().Str("component", "reconciler").Logger(),
	}
}

// ReconcileJoin repairs a single join and reports whether it changed.
func (r *Reconciler) ReconcileJoin(ctx context.Context, joinID string) (bool, error) {
	join, err := r.repos.Joins.GetByID(ctx, joinID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.reconcile(ctx, join)
}

// Sweep repairs every join with a missing link. A failing row is logged and
// skipped so it cannot hold up the others.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	joins, err := r.repos.Joins.ListUnlinked(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list unlinked joins: %w", err)
	}

	result := SweepResult{Scanned: len(joins)}
	for _, join := range joins {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		linked, err := r.reconcile(ctx, join)
		if err != nil {
			result.Failed++
			r.logger.Warn().Err(err).Str("join_id", join.ID).Msg("reconcile join failed")
			continue
		}
		if linked {
			result.Linked++
		}
	}

	r.logger.Info().
		Int("scanned", result.Scanned).
		Int("linked", result.Linked).
		Int("failed", result.Failed).
		Msg("reconciliation sweep finished")
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, join *domain.JoinRequest) (bool, error) {
	switch {
	case join.TripID == "" && join.OfferID != "":
		return r.linkTrip(ctx, join)
	case join.OfferID == "" && join.TripID != "":
		return r.linkOffer(ctx, join)
	default:
		return false, nil
	}
}

// linkTrip attaches the requester's trip matching the join's offer.
func (r *Reconciler) linkTrip(ctx context.Context, join *domain.JoinRequest) (bool, error) {
	offer, err := r.repos.Offers.GetByID(ctx, join.OfferID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	trips, err := r.repos.Trips.ListByUserOnDate(ctx, join.UserID, offer.Date)
	if err != nil {
		return false, err
	}
	for _, trip := range trips {
		if !trip.Route().Matches(offer.Route()) {
			continue
		}
		linked, err := r.repos.Joins.LinkTrip(ctx, join.ID, trip.ID)
		if err != nil {
			return false, fmt.Errorf("link trip %s: %w", trip.ID, err)
		}
		if linked {
			r.logger.Debug().Str("join_id", join.ID).Str("trip_id", trip.ID).Msg("linked trip")
		}
		return linked, nil
	}
	return false, nil
}

// linkOffer attaches the earliest offer, from any driver, matching the join's trip.
func (r *Reconciler) linkOffer(ctx context.Context, join *domain.JoinRequest) (bool, error) {
	trip, err := r.repos.Trips.GetByID(ctx, join.TripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	offers, err := r.repos.Offers.ListOnDate(ctx, trip.Date)
	if err != nil {
		return false, err
	}
	for _, offer := range offers {
		if !offer.Route().Matches(trip.Route()) {
			continue
		}
		linked, err := r.repos.Joins.LinkOffer(ctx, join.ID, offer.ID)
		if err != nil {
			return false, fmt.Errorf("link offer %s: %w", offer.ID, err)
		}
		if linked {
			r.logger.Debug().Str("join_id", join.ID).Str("offer_id", offer.ID).Msg("linked offer")
		}
		return linked, nil
	}
	return false, nil
}
