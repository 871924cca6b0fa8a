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

const tripColumns = `t.id, t.user_id, t.origin, t.destination, t.date, t.people, t.pets, t.luggage, t.purpose, t.role, t.created_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

func scanTrip(s rowScanner, extra ...any) (*domain.Trip, error) {
	var trip domain.Trip
	dest := []any{
		&trip.ID,
		&trip.UserID,
		&trip.Origin,
		&trip.Destination,
		&trip.Date,
		&trip.People,
		&trip.Pets,
		&trip.Luggage,
		&trip.Purpose,
		&trip.Role,
		&trip.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	trip.Date = domain.Day(trip.Date)
	return &trip, nil
}

func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, user_id, origin, destination, date, people, pets, luggage, purpose, role, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.UserID,
		trip.Origin,
		trip.Destination,
		dayParam(trip.Date),
		trip.People,
		trip.Pets,
		trip.Luggage,
		trip.Purpose,
		trip.Role,
		trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// ListByUser returns the trips owned by userID, soonest first.
func (r *TripRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.user_id = $1 ORDER BY t.date, t.created_at`
	return r.queryTrips(ctx, query, userID)
}

// ListByUserOnDate returns userID's trips on the given day, oldest first.
func (r *TripRepository) ListByUserOnDate(ctx context.Context, userID string, date time.Time) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips t
		WHERE t.user_id = $1 AND t.date = $2::date
		ORDER BY t.created_at, t.id
	`
	return r.queryTrips(ctx, query, userID, dayParam(date))
}

// ListForSearch returns unmatched trips passing the filter.
func (r *TripRepository) ListForSearch(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips t
		WHERE t.date = $1::date
		  AND t.people <= $2
		  AND (NOT $3::boolean OR t.pets)
		  AND t.user_id <> $4
		  AND NOT EXISTS (
		      SELECT 1 FROM joins j WHERE j.trip_id = t.id AND j.status = 'accepted'
		  )
		ORDER BY t.created_at, t.id
	`
	return r.queryTrips(ctx, query, dayParam(filter.Date), filter.MaxPeople, filter.PetsRequired, filter.ExcludeUserID)
}

// ListJoinedBy returns trips userID has a join request on.
func (r *TripRepository) ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedTrip, error) {
	query := `
		SELECT ` + tripColumns + `, j.id, j.status
		FROM joins j
		JOIN trips t ON t.id = j.trip_id
		WHERE j.user_id = $1 AND j.target = 'trip'
		ORDER BY t.date, j.created_at
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var joined []*domain.JoinedTrip
	for rows.Next() {
		var joinID string
		var status domain.JoinStatus
		trip, err := scanTrip(rows, &joinID, &status)
		if err != nil {
			return nil, err
		}
		joined = append(joined, &domain.JoinedTrip{Trip: *trip, JoinID: joinID, JoinStatus: status})
	}
	return joined, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET origin = $1, destination = $2, date = $3::date, people = $4, pets = $5, luggage = $6, purpose = $7
		WHERE id = $8
	`
	result, err := r.q.ExecContext(ctx, query,
		trip.Origin,
		trip.Destination,
		dayParam(trip.Date),
		trip.People,
		trip.Pets,
		trip.Luggage,
		trip.Purpose,
		trip.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// Delete removes a trip.
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// DeleteBefore removes trips dated before day.
func (r *TripRepository) DeleteBefore(ctx context.Context, day time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM trips WHERE date < $1::date`, dayParam(day))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
