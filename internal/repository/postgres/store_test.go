package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/repository/postgres"
	"carpool/migrations"
)

var day = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err)
	_, err = provider.Up(ctx)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `TRUNCATE notifications, joins, offers, trips`)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, repos repository.Repositories) (*domain.Trip, *domain.Offer) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	trip := &domain.Trip{
		ID: uuid.NewString(), UserID: "alice", Origin: "Warsaw", Destination: "Krakow",
		Date: day, People: 2, Role: domain.TripRoleRequest, CreatedAt: now,
	}
	require.NoError(t, repos.Trips.Create(ctx, trip))

	offer := &domain.Offer{
		ID: uuid.NewString(), UserID: "driver", Origin: "Warsaw", Destination: "Krakow",
		Date: day, Price: 40, SeatsAvailable: 3, CreatedAt: now,
	}
	require.NoError(t, repos.Offers.Create(ctx, offer))
	return trip, offer
}

func newJoin(userID, tripID, offerID string, target domain.ParentType) *domain.JoinRequest {
	return &domain.JoinRequest{
		ID: uuid.NewString(), UserID: userID, TripID: tripID, OfferID: offerID,
		Target: target, Status: domain.JoinStatusPending, CreatedAt: time.Now().UTC(),
	}
}

func TestJoinRepository_NaturalKeyAndLinks(t *testing.T) {
	db := openTestDB(t)
	repos := postgres.NewStore(db).Repositories()
	ctx := context.Background()
	trip, offer := seed(t, repos)

	first := newJoin("alice", "", offer.ID, domain.ParentOffer)
	require.NoError(t, repos.Joins.Insert(ctx, first))

	// A missing trip counts as a value in the natural key.
	err := repos.Joins.Insert(ctx, newJoin("alice", "", offer.ID, domain.ParentOffer))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repos.Joins.FindExisting(ctx, repository.JoinKey{UserID: "alice", Target: domain.ParentOffer, OfferID: offer.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	// The target is part of the key: a trip-targeted join never answers for an offer one.
	_, err = repos.Joins.FindExisting(ctx, repository.JoinKey{UserID: "alice", Target: domain.ParentTrip, OfferID: offer.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	unlinked, err := repos.Joins.ListUnlinked(ctx)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)

	linked, err := repos.Joins.LinkTrip(ctx, first.ID, trip.ID)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = repos.Joins.LinkTrip(ctx, first.ID, trip.ID)
	require.NoError(t, err)
	assert.False(t, linked)

	unlinked, err = repos.Joins.ListUnlinked(ctx)
	require.NoError(t, err)
	assert.Empty(t, unlinked)

	// Same user, trip and offer under the other target is a different request.
	require.NoError(t, repos.Joins.Insert(ctx, newJoin("alice", trip.ID, offer.ID, domain.ParentTrip)))
}

func TestJoinRepository_ListForUpdateInsideTx(t *testing.T) {
	db := openTestDB(t)
	store := postgres.NewStore(db)
	repos := store.Repositories()
	ctx := context.Background()
	_, offer := seed(t, repos)

	join := newJoin("alice", "", offer.ID, domain.ParentOffer)
	require.NoError(t, repos.Joins.Insert(ctx, join))

	err := store.WithinTx(ctx, func(tx repository.Repositories) error {
		joins, err := tx.Joins.ListByUserAndParentForUpdate(ctx, "alice", domain.ParentOffer, offer.ID)
		require.NoError(t, err)
		require.Len(t, joins, 1)
		assert.Equal(t, join.ID, joins[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestOfferRepository_ReserveSeatsIsConditional(t *testing.T) {
	db := openTestDB(t)
	repos := postgres.NewStore(db).Repositories()
	ctx := context.Background()
	_, offer := seed(t, repos)

	require.NoError(t, repos.Offers.ReserveSeats(ctx, offer.ID, 2))
	assert.ErrorIs(t, repos.Offers.ReserveSeats(ctx, offer.ID, 2), repository.ErrConditionFailed)
	require.NoError(t, repos.Offers.ReleaseSeats(ctx, offer.ID, 2))

	got, err := repos.Offers.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SeatsAvailable)
}

func TestJoinRepository_OneAcceptedJoinPerTrip(t *testing.T) {
	db := openTestDB(t)
	store := postgres.NewStore(db)
	repos := store.Repositories()
	ctx := context.Background()
	trip, offer := seed(t, repos)

	a := newJoin("driver", trip.ID, "", domain.ParentTrip)
	b := newJoin("other-driver", trip.ID, "", domain.ParentTrip)
	require.NoError(t, repos.Joins.Insert(ctx, a))
	require.NoError(t, repos.Joins.Insert(ctx, b))

	require.NoError(t, repos.Joins.Transition(ctx, a.ID, domain.JoinStatusPending, domain.JoinStatusAccepted, 0))
	err := repos.Joins.Transition(ctx, b.ID, domain.JoinStatusPending, domain.JoinStatusAccepted, 0)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repos.Joins.Transition(ctx, a.ID, domain.JoinStatusPending, domain.JoinStatusRejected, 0)
	assert.ErrorIs(t, err, repository.ErrConditionFailed)

	matched, err := repos.Joins.HasAcceptedForTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, matched)

	// Rollback leaves the offer untouched.
	errRollback := errors.New("rollback")
	err = store.WithinTx(ctx, func(tx repository.Repositories) error {
		require.NoError(t, tx.Offers.ReserveSeats(ctx, offer.ID, 1))
		return errRollback
	})
	assert.ErrorIs(t, err, errRollback)
	got, err := repos.Offers.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SeatsAvailable)
}

func TestTripRepository_DeleteCascadesToJoins(t *testing.T) {
	db := openTestDB(t)
	repos := postgres.NewStore(db).Repositories()
	ctx := context.Background()
	trip, offer := seed(t, repos)

	join := newJoin("alice", trip.ID, offer.ID, domain.ParentOffer)
	require.NoError(t, repos.Joins.Insert(ctx, join))

	removed, err := repos.Trips.DeleteBefore(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = repos.Joins.GetByID(ctx, join.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
