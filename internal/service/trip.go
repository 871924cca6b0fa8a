package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// TripInput is the owner-editable part of a trip.
type TripInput struct {
	Origin      string    `json:"origin" validate:"required,max=200"`
	Destination string    `json:"destination" validate:"required,max=200"`
	Date        time.Time `json:"date"`
	People      int       `json:"people" validate:"gte=1,lte=50"`
	Pets        bool      `json:"pets"`
	Luggage     string    `json:"luggage" validate:"max=200"`
	Purpose     string    `json:"purpose" validate:"max=500"`
}

func (in TripInput) validate(v *Validator) error {
	if err := v.Validate(in); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return fieldError("date", "is required")
	}
	return nil
}

// TripService manages the trips riders publish.
type TripService struct {
	trips     repository.TripRepository
	joins     repository.JoinRepository
	validator *Validator
}

// NewTripService creates a new TripService.
func NewTripService(trips repository.TripRepository, joins repository.JoinRepository, validator *Validator) *TripService {
	return &TripService{trips: trips, joins: joins, validator: validator}
}

// Create publishes a new trip for userID.
func (s *TripService) Create(ctx context.Context, userID string, in TripInput) (*domain.Trip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:          uuid.New().String(),
		UserID:      userID,
		Origin:      in.Origin,
		Destination: in.Destination,
		Date:        domain.Day(in.Date),
		People:      in.People,
		Pets:        in.Pets,
		Luggage:     in.Luggage,
		Purpose:     in.Purpose,
		Role:        domain.TripRoleRequest,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// ListMine returns the caller's trips.
func (s *TripService) ListMine(ctx context.Context, userID string) ([]*domain.Trip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.trips.ListByUser(ctx, userID)
}

// ListJoined returns the trips the caller has proposed to join.
func (s *TripService) ListJoined(ctx context.Context, userID string) ([]*domain.JoinedTrip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.trips.ListJoinedBy(ctx, userID)
}

// owned loads a trip and checks the caller owns it.
func (s *TripService) owned(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := checkID(tripID); err != nil {
		return nil, err
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrForbidden
	}
	return trip, nil
}

// Update edits a trip. Trips with an accepted join are frozen.
func (s *TripService) Update(ctx context.Context, userID, tripID string, in TripInput) (*domain.Trip, error) {
	if err := in.validate(s.validator); err != nil {
		return nil, err
	}
	trip, err := s.owned(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	matched, err := s.joins.HasAcceptedForTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if matched {
		return nil, ErrTripLocked
	}

	trip.Origin = in.Origin
	trip.Destination = in.Destination
	trip.Date = domain.Day(in.Date)
	trip.People = in.People
	trip.Pets = in.Pets
	trip.Luggage = in.Luggage
	trip.Purpose = in.Purpose
	if err := s.trips.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// Delete removes one of the caller's trips.
func (s *TripService) Delete(ctx context.Context, userID, tripID string) error {
	trip, err := s.owned(ctx, userID, tripID)
	if err != nil {
		return err
	}
	return s.trips.Delete(ctx, trip.ID)
}
