package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// JoinReconciler links a freshly created join to its counterpart.
type JoinReconciler interface {
	ReconcileJoin(ctx context.Context, joinID string) (bool, error)
}

// JoinPolicy holds the configurable parts of the join lifecycle.
type JoinPolicy struct {
	// RestoreSeatsOnLeave returns reserved seats to the offer when an
	// accepted join is withdrawn.
	RestoreSeatsOnLeave bool
}

// JoinResult is the outcome of creating a join request.
type JoinResult struct {
	JoinID  string
	Created bool // false when an existing request was returned
}

// JoinService owns the join request state machine:
// pending -> accepted and pending -> rejected, with seat accounting on offers.
type JoinService struct {
	tx         repository.Transactor
	reconciler JoinReconciler
	notifier   *NotificationService
	policy     JoinPolicy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewJoinService creates a new JoinService.
func NewJoinService(
	tx repository.Transactor,
	reconciler JoinReconciler,
	notifier *NotificationService,
	policy JoinPolicy,
	logger zerolog.Logger,
) *JoinService {
	return &JoinService{
		tx:         tx,
		reconciler: reconciler,
		notifier:   notifier,
		policy:     policy,
		logger:     logger.With().Str("component", "joins").Logger(),
		now:        time.Now,
	}
}

func (s *JoinService) newJoin(userID, tripID, offerID string, target domain.ParentType) *domain.JoinRequest {
	return &domain.JoinRequest{
		ID:        uuid.New().String(),
		UserID:    userID,
		TripID:    tripID,
		OfferID:   offerID,
		Target:    target,
		Status:    domain.JoinStatusPending,
		CreatedAt: s.now().UTC(),
	}
}

// insertOnce stores join unless the user already has one under key, in which
// case the existing id is returned with created=false.
func insertOnce(ctx context.Context, repos repository.Repositories, key repository.JoinKey, join *domain.JoinRequest) (string, bool, error) {
	existing, err := repos.Joins.FindExisting(ctx, key)
	switch {
	case err == nil:
		return existing.ID, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", false, err
	}

	err = repos.Joins.Insert(ctx, join)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent request won the insert.
		existing, err = repos.Joins.FindExisting(ctx, key)
		if err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return join.ID, true, nil
}

// CreateJoinOnTrip records userID's proposal to transport the owner of tripID.
// If the trip already has an accepted offer-linked join, the new request is
// attached to that offer as well.
func (s *JoinService) CreateJoinOnTrip(ctx context.Context, userID, tripID string) (*JoinResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(tripID); err != nil {
		return nil, err
	}

	var result JoinResult
	var note *domain.Notification
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		trip, err := repos.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.UserID == userID {
			return ErrForbidden
		}

		offerID, err := repos.Joins.AcceptedOfferForTrip(ctx, tripID)
		if err != nil {
			return err
		}

		join := s.newJoin(userID, tripID, offerID, domain.ParentTrip)
		key := repository.JoinKey{UserID: userID, Target: domain.ParentTrip, TripID: tripID}
		id, created, err := insertOnce(ctx, repos, key, join)
		if err != nil {
			return err
		}
		result = JoinResult{JoinID: id, Created: created}
		if !created {
			return nil
		}

		note = s.notifier.JoinRequestedOnTrip(join, trip)
		return repos.Notifications.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.reconcile(ctx, result.JoinID)
		s.notifier.Deliver(ctx, note)
	}
	return &result, nil
}

// CreateJoinOnOffer records userID's request for a seat on offerID, optionally
// for one of their own trips. Repeating the call returns the same join.
func (s *JoinService) CreateJoinOnOffer(ctx context.Context, userID, offerID, tripID string) (*JoinResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(offerID); err != nil {
		return nil, err
	}
	if tripID != "" {
		if err := checkID(tripID); err != nil {
			return nil, err
		}
	}

	var result JoinResult
	var note *domain.Notification
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		offer, err := repos.Offers.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.UserID == userID {
			return ErrForbidden
		}

		if tripID != "" {
			trip, err := repos.Trips.GetByID(ctx, tripID)
			if err != nil {
				return err
			}
			if trip.UserID != userID {
				return ErrForbidden
			}
		}

		join := s.newJoin(userID, tripID, offerID, domain.ParentOffer)
		key := repository.JoinKey{UserID: userID, Target: domain.ParentOffer, TripID: tripID, OfferID: offerID}
		id, created, err := insertOnce(ctx, repos, key, join)
		if err != nil {
			return err
		}
		result = JoinResult{JoinID: id, Created: created}
		if !created {
			return nil
		}

		note = s.notifier.JoinRequestedOnOffer(join, offer)
		return repos.Notifications.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.reconcile(ctx, result.JoinID)
		s.notifier.Deliver(ctx, note)
	}
	return &result, nil
}

// reconcile runs the targeted link repair; failures only get logged.
func (s *JoinService) reconcile(ctx context.Context, joinID string) {
	if s.reconciler == nil {
		return
	}
	if _, err := s.reconciler.ReconcileJoin(ctx, joinID); err != nil {
		s.logger.Warn().Err(err).Str("join_id", joinID).Msg("join reconciliation failed")
	}
}

// joinParent is what a join resolves to for authorisation and seat accounting.
type joinParent struct {
	ownerID string
	trip    *domain.Trip  // linked trip, nil when none or gone
	offer   *domain.Offer // offer whose seats the join consumes, nil when none
}

// seatsRequired is the party size of the linked trip, or 1 without one.
func (p *joinParent) seatsRequired() int {
	if p.trip != nil && p.trip.People > 0 {
		return p.trip.People
	}
	return 1
}

// resolveParent loads the trip or offer the join was made against. Offers
// are locked so the seat check and the reservation see the same row.
//
// An offer-bound join is decided by the offer owner and consumes seats.
// A trip-bound join is decided by the trip owner and consumes seats only
// when the linked offer belongs to the requester.
func resolveParent(ctx context.Context, repos repository.Repositories, join *domain.JoinRequest) (*joinParent, error) {
	if join.Target == domain.ParentOffer {
		offer, err := repos.Offers.GetByIDForUpdate(ctx, join.OfferID)
		if err != nil {
			return nil, err
		}
		parent := &joinParent{ownerID: offer.UserID, offer: offer}
		if join.TripID != "" {
			trip, err := repos.Trips.GetByID(ctx, join.TripID)
			switch {
			case err == nil:
				parent.trip = trip
			case !errors.Is(err, repository.ErrNotFound):
				return nil, err
			}
		}
		return parent, nil
	}

	trip, err := repos.Trips.GetByID(ctx, join.TripID)
	if err != nil {
		return nil, err
	}
	parent := &joinParent{ownerID: trip.UserID, trip: trip}
	if join.OfferID != "" {
		offer, err := repos.Offers.GetByIDForUpdate(ctx, join.OfferID)
		switch {
		case err == nil:
			if offer.UserID == join.UserID {
				parent.offer = offer
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return parent, nil
}

// AcceptJoin accepts a pending join on behalf of the owner of its parent.
// Seat reservation and the status change commit together or not at all.
func (s *JoinService) AcceptJoin(ctx context.Context, actingUserID, joinID string) (*domain.JoinRequest, error) {
	if actingUserID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(joinID); err != nil {
		return nil, err
	}

	var accepted *domain.JoinRequest
	var note *domain.Notification
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		join, err := repos.Joins.GetByIDForUpdate(ctx, joinID)
		if err != nil {
			return err
		}
		parent, err := resolveParent(ctx, repos, join)
		if err != nil {
			return err
		}
		if parent.ownerID != actingUserID {
			return ErrForbidden
		}
		if join.Status != domain.JoinStatusPending {
			return ErrJoinNotPending
		}

		if join.TripID != "" {
			matched, err := repos.Joins.HasAcceptedForTrip(ctx, join.TripID)
			if err != nil {
				return err
			}
			if matched {
				return ErrTripAlreadyMatched
			}
		}

		reserved := 0
		if parent.offer != nil {
			reserved = parent.seatsRequired()
			if !parent.offer.HasSeats(reserved) {
				return ErrCapacityExceeded
			}
			if err := repos.Offers.ReserveSeats(ctx, parent.offer.ID, reserved); err != nil {
				if errors.Is(err, repository.ErrConditionFailed) {
					return ErrCapacityExceeded
				}
				return err
			}
		}

		err = repos.Joins.Transition(ctx, join.ID, domain.JoinStatusPending, domain.JoinStatusAccepted, reserved)
		switch {
		case errors.Is(err, repository.ErrConditionFailed):
			return ErrJoinNotPending
		case errors.Is(err, repository.ErrDuplicate):
			return ErrTripAlreadyMatched
		case err != nil:
			return err
		}

		join.Status = domain.JoinStatusAccepted
		join.SeatsReserved = reserved
		accepted = join

		note = s.notifier.JoinDecided(join, domain.JoinStatusAccepted)
		return repos.Notifications.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("join_id", accepted.ID).
		Str("offer_id", accepted.OfferID).
		Int("seats_reserved", accepted.SeatsReserved).
		Msg("join accepted")
	s.notifier.Deliver(ctx, note)
	return accepted, nil
}

// RejectJoin rejects a pending join on behalf of the owner of its parent.
func (s *JoinService) RejectJoin(ctx context.Context, actingUserID, joinID string) (*domain.JoinRequest, error) {
	if actingUserID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(joinID); err != nil {
		return nil, err
	}

	var rejected *domain.JoinRequest
	var note *domain.Notification
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		join, err := repos.Joins.GetByIDForUpdate(ctx, joinID)
		if err != nil {
			return err
		}
		parent, err := resolveParent(ctx, repos, join)
		if err != nil {
			return err
		}
		if parent.ownerID != actingUserID {
			return ErrForbidden
		}
		if join.Status != domain.JoinStatusPending {
			return ErrJoinNotPending
		}

		err = repos.Joins.Transition(ctx, join.ID, domain.JoinStatusPending, domain.JoinStatusRejected, 0)
		if errors.Is(err, repository.ErrConditionFailed) {
			return ErrJoinNotPending
		}
		if err != nil {
			return err
		}

		join.Status = domain.JoinStatusRejected
		rejected = join

		note = s.notifier.JoinDecided(join, domain.JoinStatusRejected)
		return repos.Notifications.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, note)
	return rejected, nil
}

// LeaveJoin withdraws userID's joins against a trip or offer together with
// their notifications. Reserved seats go back to the offer when the policy
// says so.
func (s *JoinService) LeaveJoin(ctx context.Context, userID string, parentType domain.ParentType, parentID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if !parentType.Valid() {
		return ErrInvalidParentType
	}
	if err := checkID(parentID); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		// Joins are locked before the offer, the same order AcceptJoin uses.
		joins, err := repos.Joins.ListByUserAndParentForUpdate(ctx, userID, parentType, parentID)
		if err != nil {
			return err
		}
		if len(joins) == 0 {
			return repository.ErrNotFound
		}

		ids := make([]string, 0, len(joins))
		for _, j := range joins {
			ids = append(ids, j.ID)
			if !s.policy.RestoreSeatsOnLeave || j.Status != domain.JoinStatusAccepted || j.SeatsReserved == 0 || j.OfferID == "" {
				continue
			}
			err := repos.Offers.ReleaseSeats(ctx, j.OfferID, j.SeatsReserved)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		if err := repos.Notifications.DeleteByJoinIDs(ctx, ids); err != nil {
			return err
		}
		return repos.Joins.DeleteByIDs(ctx, ids)
	})
}
