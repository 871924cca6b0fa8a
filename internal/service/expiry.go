package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// ExpiryResult counts what an expiry sweep removed.
type ExpiryResult struct {
	Trips  int64 `json:"trips"`
	Offers int64 `json:"offers"`
}

// ExpiryService removes trips whose day has passed and offers past their expiry date.
type ExpiryService struct {
	trips  repository.TripRepository
	offers repository.OfferRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewExpiryService creates a new ExpiryService.
func NewExpiryService(trips repository.TripRepository, offers repository.OfferRepository, logger zerolog.Logger) *ExpiryService {
	return &ExpiryService{
		trips:  trips,
		offers: offers,
		logger: logger.With().Str("component", "expiry").Logger(),
		now:    time.Now,
	}
}

// Sweep deletes everything that expired before today.
func (s *ExpiryService) Sweep(ctx context.Context) (ExpiryResult, error) {
	return s.SweepAt(ctx, s.now())
}

// SweepAt deletes everything that expired before the day of now.
func (s *ExpiryService) SweepAt(ctx context.Context, now time.Time) (ExpiryResult, error) {
	today := domain.Day(now)

	offers, err := s.offers.DeleteExpired(ctx, today)
	if err != nil {
		return ExpiryResult{}, fmt.Errorf("delete expired offers: %w", err)
	}
	trips, err := s.trips.DeleteBefore(ctx, today)
	if err != nil {
		return ExpiryResult{Offers: offers}, fmt.Errorf("delete past trips: %w", err)
	}

	result := ExpiryResult{Trips: trips, Offers: offers}
	s.logger.Info().Int64("trips", trips).Int64("offers", offers).Msg("expired listings removed")
	return result, nil
}
