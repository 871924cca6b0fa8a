package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const offerColumns = `o.id, o.user_id, o.origin, o.destination, o.date, o.price, o.vehicle_type,
	o.seats_available, o.pets, o.luggage, o.notes, o.valid_until, o.created_at`

// OfferRepository is a PostgreSQL implementation of repository.OfferRepository.
type OfferRepository struct {
	q Querier
}

// NewOfferRepository creates a new PostgreSQL offer repository.
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{q: db}
}

// NewOfferRepositoryWithTx creates an offer repository using a transaction.
func NewOfferRepositoryWithTx(tx *sql.Tx) *OfferRepository {
	return &OfferRepository{q: tx}
}

func scanOffer(s rowScanner, extra ...any) (*domain.Offer, error) {
	var offer domain.Offer
	var validUntil sql.NullTime
	dest := []any{
		&offer.ID,
		&offer.UserID,
		&offer.Origin,
		&offer.Destination,
		&offer.Date,
		&offer.Price,
		&offer.VehicleType,
		&offer.SeatsAvailable,
		&offer.Pets,
		&offer.Luggage,
		&offer.Notes,
		&validUntil,
		&offer.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	offer.Date = domain.Day(offer.Date)
	if validUntil.Valid {
		offer.ValidUntil = domain.Day(validUntil.Time)
	}
	return &offer, nil
}

func (r *OfferRepository) queryOffers(ctx context.Context, query string, args ...any) ([]*domain.Offer, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *OfferRepository) getOne(ctx context.Context, query, id string) (*domain.Offer, error) {
	offer, err := scanOffer(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return offer, nil
}

// Create persists a new offer.
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (id, user_id, origin, destination, date, price, vehicle_type,
			seats_available, pets, luggage, notes, valid_until, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12::date, $13)
	`
	_, err := r.q.ExecContext(ctx, query,
		offer.ID,
		offer.UserID,
		offer.Origin,
		offer.Destination,
		dayParam(offer.Date),
		offer.Price,
		offer.VehicleType,
		offer.SeatsAvailable,
		offer.Pets,
		offer.Luggage,
		offer.Notes,
		nullDay(offer.ValidUntil),
		offer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID retrieves an offer by ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM offers o WHERE o.id = $1`, id)
}

// GetByIDForUpdate retrieves an offer and locks its row.
func (r *OfferRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Offer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM offers o WHERE o.id = $1 FOR UPDATE`, id)
}

// ListByUser returns the offers owned by userID with their accepted passenger counts.
func (r *OfferRepository) ListByUser(ctx context.Context, userID string) ([]*domain.OwnedOffer, error) {
	query := `
		SELECT ` + offerColumns + `,
			(SELECT COUNT(*) FROM joins j WHERE j.offer_id = o.id AND j.status = 'accepted')
		FROM offers o
		WHERE o.user_id = $1
		ORDER BY o.date, o.created_at
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owned []*domain.OwnedOffer
	for rows.Next() {
		var passengers int
		offer, err := scanOffer(rows, &passengers)
		if err != nil {
			return nil, err
		}
		owned = append(owned, &domain.OwnedOffer{Offer: *offer, PassengersCount: passengers})
	}
	return owned, rows.Err()
}

// ListOnDate returns every offer on the given day, oldest first.
func (r *OfferRepository) ListOnDate(ctx context.Context, date time.Time) ([]*domain.Offer, error) {
	query := `
		SELECT ` + offerColumns + ` FROM offers o
		WHERE o.date = $1::date
		ORDER BY o.created_at, o.id
	`
	return r.queryOffers(ctx, query, dayParam(date))
}

// ListForSearch returns offers passing the filter.
func (r *OfferRepository) ListForSearch(ctx context.Context, filter repository.OfferFilter) ([]*domain.Offer, error) {
	query := `
		SELECT ` + offerColumns + ` FROM offers o
		WHERE o.date = $1::date
		  AND o.seats_available >= $2
		  AND (NOT $3::boolean OR o.pets)
		ORDER BY o.created_at, o.id
	`
	return r.queryOffers(ctx, query, dayParam(filter.Date), filter.MinSeats, filter.PetsRequired)
}

// ListJoinedBy returns offers userID has a join request on.
func (r *OfferRepository) ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedOffer, error) {
	query := `
		SELECT ` + offerColumns + `, j.id, j.status
		FROM joins j
		JOIN offers o ON o.id = j.offer_id
		WHERE j.user_id = $1 AND j.target = 'offer'
		ORDER BY o.date, j.created_at
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var joined []*domain.JoinedOffer
	for rows.Next() {
		var joinID string
		var status domain.JoinStatus
		offer, err := scanOffer(rows, &joinID, &status)
		if err != nil {
			return nil, err
		}
		joined = append(joined, &domain.JoinedOffer{Offer: *offer, JoinID: joinID, JoinStatus: status})
	}
	return joined, rows.Err()
}

// Update updates an existing offer.
func (r *OfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	query := `
		UPDATE offers
		SET origin = $1, destination = $2, date = $3::date, price = $4, vehicle_type = $5,
			seats_available = $6, pets = $7, luggage = $8, notes = $9, valid_until = $10::date
		WHERE id = $11
	`
	result, err := r.q.ExecContext(ctx, query,
		offer.Origin,
		offer.Destination,
		dayParam(offer.Date),
		offer.Price,
		offer.VehicleType,
		offer.SeatsAvailable,
		offer.Pets,
		offer.Luggage,
		offer.Notes,
		nullDay(offer.ValidUntil),
		offer.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// ReserveSeats takes n seats from the offer only if at least n remain.
func (r *OfferRepository) ReserveSeats(ctx context.Context, id string, n int) error {
	query := `
		UPDATE offers SET seats_available = seats_available - $2
		WHERE id = $1 AND seats_available >= $2
	`
	result, err := r.q.ExecContext(ctx, query, id, n)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConditionFailed)
}

// ReleaseSeats returns n seats to the offer.
func (r *OfferRepository) ReleaseSeats(ctx context.Context, id string, n int) error {
	result, err := r.q.ExecContext(ctx, `UPDATE offers SET seats_available = seats_available + $2 WHERE id = $1`, id, n)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// DeleteExpired removes offers whose expiry date is before day.
func (r *OfferRepository) DeleteExpired(ctx context.Context, day time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE valid_until < $1::date`, dayParam(day))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure OfferRepository implements repository.OfferRepository.
var _ repository.OfferRepository = (*OfferRepository)(nil)
