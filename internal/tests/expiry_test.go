package tests

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 7. EXPIRY
// ──────────────────────────────────────────────

func TestExpirySweep_RemovesPastListingsAndTheirJoins(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	repos := store.Repositories()
	expiry := service.NewExpiryService(repos.Trips, repos.Offers, zerolog.Nop())

	yesterday := travelDay.AddDate(0, 0, -1)
	oldTrip := store.AddTrip(&domain.Trip{UserID: "alice", Origin: "Warsaw", Destination: "Krakow", Date: yesterday, People: 1})
	todayTrip := store.AddTrip(&domain.Trip{UserID: "bob", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, People: 1})
	expired := store.AddOffer(&domain.Offer{
		UserID: "driver", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, SeatsAvailable: 3, ValidUntil: yesterday,
	})
	open := store.AddOffer(&domain.Offer{UserID: "driver", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, SeatsAvailable: 3})
	lastDay := store.AddOffer(&domain.Offer{
		UserID: "driver", Origin: "Lodz", Destination: "Krakow", Date: travelDay, SeatsAvailable: 3, ValidUntil: travelDay,
	})

	gone := store.AddJoin(&domain.JoinRequest{UserID: "bob", TripID: todayTrip.ID, OfferID: expired.ID, Target: domain.ParentOffer})
	kept := store.AddJoin(&domain.JoinRequest{UserID: "bob", TripID: todayTrip.ID, OfferID: open.ID, Target: domain.ParentOffer})

	result, err := expiry.SweepAt(context.Background(), travelDay.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, service.ExpiryResult{Trips: 1, Offers: 1}, result)

	assert.Nil(t, store.Trip(oldTrip.ID))
	assert.NotNil(t, store.Trip(todayTrip.ID))
	assert.Nil(t, store.Offer(expired.ID))
	assert.NotNil(t, store.Offer(open.ID))
	assert.NotNil(t, store.Offer(lastDay.ID))
	assert.Nil(t, store.Join(gone.ID))
	assert.NotNil(t, store.Join(kept.ID))

	again, err := expiry.SweepAt(context.Background(), travelDay)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestExpirySweep_ReportsStoreErrors(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	repos := store.Repositories()
	expiry := service.NewExpiryService(repos.Trips, repos.Offers, zerolog.Nop())

	store.FailOn("Trips.DeleteBefore", errBoom)
	_, err := expiry.SweepAt(context.Background(), travelDay)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, store.Calls("Offers.DeleteExpired"))
}
