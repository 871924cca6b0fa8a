package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store opens transactions spanning all repositories.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories running outside any transaction.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Trips:         NewTripRepository(s.db),
		Offers:        NewOfferRepository(s.db),
		Joins:         NewJoinRepository(s.db),
		Notifications: NewNotificationRepository(s.db),
	}
}

// WithinTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(repository.Repositories{
		Trips:         NewTripRepositoryWithTx(tx),
		Offers:        NewOfferRepositoryWithTx(tx),
		Joins:         NewJoinRepositoryWithTx(tx),
		Notifications: NewNotificationRepositoryWithTx(tx),
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ repository.Transactor = (*Store)(nil)

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDay(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: dayParam(t), Valid: true}
}

// dayParam renders a day for DATE columns so the session time zone never shifts it.
func dayParam(t time.Time) string {
	return domain.Day(t).Format(domain.DateLayout)
}

func expectOneRow(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}
