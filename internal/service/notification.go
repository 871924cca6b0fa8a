package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// NotificationService builds, records and delivers join notifications.
// Records are written by the caller inside the transition's transaction;
// Deliver pushes them to live subscribers once that transaction commits.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher redis.NotificationPublisherInterface
	logger    zerolog.Logger
	now       func() time.Time
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(repo repository.NotificationRepository, publisher redis.NotificationPublisherInterface, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "notifications").Logger(),
		now:       time.Now,
	}
}

func (s *NotificationService) build(typ domain.NotificationType, recipientID string, join *domain.JoinRequest, message string) *domain.Notification {
	return &domain.Notification{
		ID:          uuid.New().String(),
		Type:        typ,
		RecipientID: recipientID,
		JoinID:      join.ID,
		TripID:      join.TripID,
		OfferID:     join.OfferID,
		Message:     message,
		CreatedAt:   s.now().UTC(),
	}
}

// JoinRequestedOnTrip tells a trip owner someone proposed a journey.
func (s *NotificationService) JoinRequestedOnTrip(join *domain.JoinRequest, trip *domain.Trip) *domain.Notification {
	return s.build(domain.NotificationJoinRequestedTrip, trip.UserID, join,
		fmt.Sprintf("New journey proposal from %s to %s on %s.",
			trip.Origin, trip.Destination, trip.Date.Format(domain.DateLayout)))
}

// JoinRequestedOnOffer tells an offer owner someone wants a seat.
func (s *NotificationService) JoinRequestedOnOffer(join *domain.JoinRequest, offer *domain.Offer) *domain.Notification {
	return s.build(domain.NotificationJoinRequestedOffer, offer.UserID, join,
		fmt.Sprintf("A passenger wants to join your ride from %s to %s on %s.",
			offer.Origin, offer.Destination, offer.Date.Format(domain.DateLayout)))
}

// JoinDecided tells the requester their join was accepted or rejected.
func (s *NotificationService) JoinDecided(join *domain.JoinRequest, status domain.JoinStatus) *domain.Notification {
	typ := domain.NotificationJoinRejected
	verb := "rejected"
	if status == domain.JoinStatusAccepted {
		typ = domain.NotificationJoinAccepted
		verb = "accepted"
	}
	return s.build(typ, join.UserID, join,
		fmt.Sprintf("Your request to join the %s has been %s.", join.Target, verb))
}

// Deliver publishes a committed notification to its recipient's live channel.
func (s *NotificationService) Deliver(ctx context.Context, n *domain.Notification) {
	if n == nil {
		return
	}

	s.logger.Info().
		Str("type", string(n.Type)).
		Str("recipient_id", n.RecipientID).
		Str("join_id", n.JoinID).
		Msg("notification recorded")

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", n.ID).Msg("live delivery failed")
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.NotificationView, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.repo.ListByRecipient(ctx, userID)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if err := checkID(notificationID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, notificationID, userID)
}
