package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// OfferInput is the owner-editable part of an offer.
type OfferInput struct {
	Origin         string    `json:"origin" validate:"required,max=200"`
	Destination    string    `json:"destination" validate:"required,max=200"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price" validate:"gte=0"`
	VehicleType    string    `json:"vehicle_type" validate:"max=100"`
	SeatsAvailable int       `json:"seats_available" validate:"gte=0,lte=50"`
	Pets           bool      `json:"pets"`
	Luggage        string    `json:"luggage" validate:"max=200"`
	Notes          string    `json:"notes" validate:"max=1000"`
	ValidUntil     time.Time `json:"valid_until"`
}

func (in OfferInput) validate(v *Validator) error {
	if err := v.Validate(in); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return fieldError("date", "is required")
	}
	return nil
}

// OfferService manages the offers drivers publish.
type OfferService struct {
	offers    repository.OfferRepository
	joins     repository.JoinRepository
	validator *Validator
}

// NewOfferService creates a new OfferService.
func NewOfferService(offers repository.OfferRepository, joins repository.JoinRepository, validator *Validator) *OfferService {
	return &OfferService{offers: offers, joins: joins, validator: validator}
}

// Create publishes a new offer for userID.
func (s *OfferService) Create(ctx context.Context, userID string, in OfferInput) (*domain.Offer, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		ID:             uuid.New().String(),
		UserID:         userID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		Date:           domain.Day(in.Date),
		Price:          in.Price,
		VehicleType:    in.VehicleType,
		SeatsAvailable: in.SeatsAvailable,
		Pets:           in.Pets,
		Luggage:        in.Luggage,
		Notes:          in.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	if !in.ValidUntil.IsZero() {
		offer.ValidUntil = domain.Day(in.ValidUntil)
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// ListMine returns the caller's offers with their passenger counts.
func (s *OfferService) ListMine(ctx context.Context, userID string) ([]*domain.OwnedOffer, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.offers.ListByUser(ctx, userID)
}

// ListJoined returns the offers the caller has asked to join.
func (s *OfferService) ListJoined(ctx context.Context, userID string) ([]*domain.JoinedOffer, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.offers.ListJoinedBy(ctx, userID)
}

// owned loads an offer and checks the caller owns it.
func (s *OfferService) owned(ctx context.Context, userID, offerID string) (*domain.Offer, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(offerID); err != nil {
		return nil, err
	}
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.UserID != userID {
		return nil, ErrForbidden
	}
	return offer, nil
}

// Update edits an offer. Once a join is accepted its seat count can only
// change through the join lifecycle.
func (s *OfferService) Update(ctx context.Context, userID, offerID string, in OfferInput) (*domain.Offer, error) {
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}
	offer, err := s.owned(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}

	if in.SeatsAvailable != offer.SeatsAvailable {
		managed, err := s.joins.HasAcceptedForOffer(ctx, offer.ID)
		if err != nil {
			return nil, err
		}
		if managed {
			return nil, ErrSeatsManaged
		}
	}

	offer.Origin = in.Origin
	offer.Destination = in.Destination
	offer.Date = domain.Day(in.Date)
	offer.Price = in.Price
	offer.VehicleType = in.VehicleType
	offer.SeatsAvailable = in.SeatsAvailable
	offer.Pets = in.Pets
	offer.Luggage = in.Luggage
	offer.Notes = in.Notes
	offer.ValidUntil = time.Time{}
	if !in.ValidUntil.IsZero() {
		offer.ValidUntil = domain.Day(in.ValidUntil)
	}
	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// Delete removes one of the caller's offers.
func (s *OfferService) Delete(ctx context.Context, userID, offerID string) error {
	offer, err := s.owned(ctx, userID, offerID)
	if err != nil {
		return err
	}
	return s.offers.Delete(ctx, offer.ID)
}
