package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const joinColumns = `id, user_id, trip_id, offer_id, target, status, seats_reserved, created_at`

// JoinRepository is a PostgreSQL implementation of repository.JoinRepository.
type JoinRepository struct {
	q Querier
}

// NewJoinRepository creates a new PostgreSQL join repository.
func NewJoinRepository(db *sql.DB) *JoinRepository {
	return &JoinRepository{q: db}
}

// NewJoinRepositoryWithTx creates a join repository using a transaction.
func NewJoinRepositoryWithTx(tx *sql.Tx) *JoinRepository {
	return &JoinRepository{q: tx}
}

func scanJoin(s rowScanner) (*domain.JoinRequest, error) {
	var join domain.JoinRequest
	var tripID, offerID sql.NullString
	err := s.Scan(
		&join.ID,
		&join.UserID,
		&tripID,
		&offerID,
		&join.Target,
		&join.Status,
		&join.SeatsReserved,
		&join.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	join.TripID = tripID.String
	join.OfferID = offerID.String
	return &join, nil
}

func (r *JoinRepository) getOne(ctx context.Context, query string, args ...any) (*domain.JoinRequest, error) {
	join, err := scanJoin(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return join, nil
}

func (r *JoinRepository) queryJoins(ctx context.Context, query string, args ...any) ([]*domain.JoinRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var joins []*domain.JoinRequest
	for rows.Next() {
		join, err := scanJoin(rows)
		if err != nil {
			return nil, err
		}
		joins = append(joins, join)
	}
	return joins, rows.Err()
}

// Insert stores a new join unless one with the same natural key exists.
func (r *JoinRepository) Insert(ctx context.Context, join *domain.JoinRequest) error {
	query := `
		INSERT INTO joins (id, user_id, trip_id, offer_id, target, status, seats_reserved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT joins_natural_key DO NOTHING
	`
	result, err := r.q.ExecContext(ctx, query,
		join.ID,
		join.UserID,
		nullString(join.TripID),
		nullString(join.OfferID),
		join.Target,
		join.Status,
		join.SeatsReserved,
		join.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert join: %w", err)
	}
	return expectOneRow(result, repository.ErrDuplicate)
}

// FindExisting returns the oldest join matching key.
func (r *JoinRepository) FindExisting(ctx context.Context, key repository.JoinKey) (*domain.JoinRequest, error) {
	query := `
		SELECT ` + joinColumns + ` FROM joins
		WHERE user_id = $1
		  AND target = $2
		  AND ($3::uuid IS NULL OR trip_id = $3::uuid)
		  AND ($4::uuid IS NULL OR offer_id = $4::uuid)
		ORDER BY created_at, id
		LIMIT 1
	`
	return r.getOne(ctx, query, key.UserID, key.Target, nullString(key.TripID), nullString(key.OfferID))
}

// GetByID retrieves a join by ID.
func (r *JoinRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	return r.getOne(ctx, `SELECT `+joinColumns+` FROM joins WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a join and locks its row.
func (r *JoinRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.JoinRequest, error) {
	return r.getOne(ctx, `SELECT `+joinColumns+` FROM joins WHERE id = $1 FOR UPDATE`, id)
}

// Transition moves a join out of from into to.
func (r *JoinRepository) Transition(ctx context.Context, id string, from, to domain.JoinStatus, seatsReserved int) error {
	query := `UPDATE joins SET status = $3, seats_reserved = $4 WHERE id = $1 AND status = $2`
	result, err := r.q.ExecContext(ctx, query, id, from, to, seatsReserved)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return expectOneRow(result, repository.ErrConditionFailed)
}

// AcceptedOfferForTrip returns the offer of an accepted join on tripID, or "".
func (r *JoinRepository) AcceptedOfferForTrip(ctx context.Context, tripID string) (string, error) {
	query := `
		SELECT offer_id FROM joins
		WHERE trip_id = $1 AND status = 'accepted' AND offer_id IS NOT NULL
		ORDER BY created_at
		LIMIT 1
	`
	var offerID string
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(&offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return offerID, nil
}

// HasAcceptedForTrip reports whether any join on tripID is accepted.
func (r *JoinRepository) HasAcceptedForTrip(ctx context.Context, tripID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM joins WHERE trip_id = $1 AND status = 'accepted')`, tripID,
	).Scan(&exists)
	return exists, err
}

// HasAcceptedForOffer reports whether any join on offerID is accepted.
func (r *JoinRepository) HasAcceptedForOffer(ctx context.Context, offerID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM joins WHERE offer_id = $1 AND status = 'accepted')`, offerID,
	).Scan(&exists)
	return exists, err
}

// ListByUserAndParentForUpdate returns userID's joins on the given trip or offer and locks them.
func (r *JoinRepository) ListByUserAndParentForUpdate(ctx context.Context, userID string, parent domain.ParentType, parentID string) ([]*domain.JoinRequest, error) {
	column := "trip_id"
	if parent == domain.ParentOffer {
		column = "offer_id"
	}
	query := `SELECT ` + joinColumns + ` FROM joins WHERE user_id = $1 AND target = $2 AND ` + column + ` = $3 ORDER BY created_at, id FOR UPDATE`
	return r.queryJoins(ctx, query, userID, parent, parentID)
}

// ListUnlinked returns joins missing exactly one of trip or offer.
func (r *JoinRepository) ListUnlinked(ctx context.Context) ([]*domain.JoinRequest, error) {
	query := `
		SELECT ` + joinColumns + ` FROM joins
		WHERE (trip_id IS NULL) <> (offer_id IS NULL)
		ORDER BY created_at, id
	`
	return r.queryJoins(ctx, query)
}

// LinkTrip sets the trip of a join whose trip is still unknown.
func (r *JoinRepository) LinkTrip(ctx context.Context, id, tripID string) (bool, error) {
	return r.link(ctx, `UPDATE joins SET trip_id = $2 WHERE id = $1 AND trip_id IS NULL`, id, tripID)
}

// LinkOffer sets the offer of a join whose offer is still unknown.
func (r *JoinRepository) LinkOffer(ctx context.Context, id, offerID string) (bool, error) {
	return r.link(ctx, `UPDATE joins SET offer_id = $2 WHERE id = $1 AND offer_id IS NULL`, id, offerID)
}

func (r *JoinRepository) link(ctx context.Context, query, id, ref string) (bool, error) {
	result, err := r.q.ExecContext(ctx, query, id, ref)
	if err != nil {
		if isUniqueViolation(err) {
			return false, repository.ErrDuplicate
		}
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// DeleteByIDs removes the given joins.
func (r *JoinRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx, `DELETE FROM joins WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	return err
}

// Ensure JoinRepository implements repository.JoinRepository.
var _ repository.JoinRepository = (*JoinRepository)(nil)
