package service

import (
	"context"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// ChatService derives chat room keys. Keys are computed on every call
// because accepting a join moves a trip's conversation into its offer's room.
type ChatService struct {
	trips  repository.TripRepository
	offers repository.OfferRepository
	joins  repository.JoinRepository
}

// NewChatService creates a new ChatService.
func NewChatService(trips repository.TripRepository, offers repository.OfferRepository, joins repository.JoinRepository) *ChatService {
	return &ChatService{trips: trips, offers: offers, joins: joins}
}

// RoomKey returns "offer:<id>" for offers and for trips with an accepted
// offer-linked join, and "trip:<id>" for any other trip.
func (s *ChatService) RoomKey(ctx context.Context, parentType domain.ParentType, id string) (string, error) {
	if !parentType.Valid() {
		return "", ErrInvalidParentType
	}
	if err := checkID(id); err != nil {
		return "", err
	}

	if parentType == domain.ParentOffer {
		if _, err := s.offers.GetByID(ctx, id); err != nil {
			return "", err
		}
		return "offer:" + id, nil
	}

	if _, err := s.trips.GetByID(ctx, id); err != nil {
		return "", err
	}
	offerID, err := s.joins.AcceptedOfferForTrip(ctx, id)
	if err != nil {
		return "", err
	}
	if offerID != "" {
		return "offer:" + offerID, nil
	}
	return "trip:" + id, nil
}
