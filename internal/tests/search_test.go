package tests

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 4. CANDIDATE SEARCH
// ──────────────────────────────────────────────

var polishCities = map[string]geo.Point{
	"Warsaw":   {Lat: 52.2297, Lon: 21.0122},
	"Krakow":   {Lat: 50.0647, Lon: 19.9450},
	"Gdansk":   {Lat: 54.3520, Lon: 18.6466},
	"Lodz":     {Lat: 51.7592, Lon: 19.4560},
	"Poznan":   {Lat: 52.4064, Lon: 16.9252},
	"Wroclaw":  {Lat: 51.1079, Lon: 17.0385},
	"Lublin":   {Lat: 51.2465, Lon: 22.5684},
	"Katowice": {Lat: 50.2649, Lon: 19.0238},
}

func newSearch(store *MockStore, geocoder service.Geocoder, maxAlternatives int) *service.SearchService {
	repos := store.Repositories()
	return service.NewSearchService(repos.Trips, repos.Offers, geocoder, service.NewValidator(), maxAlternatives, 4, zerolog.Nop())
}

func addOffer(store *MockStore, owner, origin, destination string, date time.Time, seats int, pets bool) *domain.Offer {
	return store.AddOffer(&domain.Offer{
		UserID: owner, Origin: origin, Destination: destination,
		Date: date, SeatsAvailable: seats, Pets: pets,
	})
}

func offerIDs(ranked []service.Ranked[*domain.Offer]) []string {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Item.ID)
	}
	return ids
}

func TestSearchOffers_ExactMatchAndRankedAlternatives(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	geocoder := NewMockGeocoder(polishCities)
	search := newSearch(store, geocoder, 5)

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exact := addOffer(store, "d1", "Warsaw", "Krakow", date, 3, false)
	toGdansk := addOffer(store, "d2", "Warsaw", "Gdansk", date, 2, false)
	fromLodz := addOffer(store, "d3", "Lodz", "Krakow", date, 2, false)
	toWroclaw := addOffer(store, "d4", "Poznan", "Wroclaw", date, 1, false)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Warsaw", Destination: "Krakow", Date: date, PartySize: 1,
	})
	require.NoError(t, err)

	require.Len(t, result.Exact, 1)
	assert.Equal(t, exact.ID, result.Exact[0].ID)

	// Destination distance decides before origin distance.
	assert.Equal(t, []string{fromLodz.ID, toWroclaw.ID, toGdansk.ID}, offerIDs(result.Alternatives))
	assert.Zero(t, result.Alternatives[0].DistanceToDestination)
	assert.InDelta(t, 120, result.Alternatives[0].DistanceToOrigin, 10)
	assert.Less(t, result.Alternatives[1].DistanceToDestination, result.Alternatives[2].DistanceToDestination)
	assert.Greater(t, result.Alternatives[1].DistanceToOrigin, result.Alternatives[2].DistanceToOrigin)
}

func TestSearchOffers_OriginDistanceBreaksDestinationTies(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	fromPoznan := addOffer(store, "d1", "Poznan", "Gdansk", travelDay, 2, false)
	fromLublin := addOffer(store, "d2", "Lublin", "Gdansk", travelDay, 2, false)
	fromLodz := addOffer(store, "d3", "Lodz", "Gdansk", travelDay, 2, false)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Warsaw", Destination: "Krakow", Date: travelDay, PartySize: 1,
	})
	require.NoError(t, err)

	require.Len(t, result.Alternatives, 3)
	assert.Equal(t, []string{fromLodz.ID, fromLublin.ID, fromPoznan.ID}, offerIDs(result.Alternatives))
	for _, alt := range result.Alternatives[1:] {
		assert.Equal(t, result.Alternatives[0].DistanceToDestination, alt.DistanceToDestination)
	}
}

func TestSearchOffers_ExactNeverInAlternatives(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	exact := addOffer(store, "d1", "Warsaw", "Krakow", travelDay, 1, true)
	accented := addOffer(store, "d2", " WARSAW", "Kraków ", travelDay, 4, true)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "warsaw", Destination: "krakow", Date: travelDay, PartySize: 1, PetsRequired: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Exact, 2)
	assert.Equal(t, exact.ID, result.Exact[0].ID)
	assert.Equal(t, accented.ID, result.Exact[1].ID)
	assert.Empty(t, result.Alternatives)
}

func TestSearchOffers_Filters(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	addOffer(store, "d1", "Warsaw", "Krakow", travelDay, 1, true)                  // too few seats
	addOffer(store, "d2", "Warsaw", "Krakow", travelDay, 4, false)                 // no pets
	addOffer(store, "d3", "Warsaw", "Krakow", travelDay.AddDate(0, 0, 1), 4, true) // other day
	ok := addOffer(store, "d4", "Warsaw", "Krakow", travelDay, 2, true)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Warsaw", Destination: "Krakow", Date: travelDay, PartySize: 2, PetsRequired: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Exact, 1)
	assert.Equal(t, ok.ID, result.Exact[0].ID)
	assert.Empty(t, result.Alternatives)
}

func TestSearchOffers_UnlocatablePlacesSortLast(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	lost := addOffer(store, "d1", "Warsaw", "Atlantis", travelDay, 2, false)
	far := addOffer(store, "d2", "Warsaw", "Gdansk", travelDay, 2, false)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Warsaw", Destination: "Krakow", Date: travelDay, PartySize: 1,
	})
	require.NoError(t, err)

	require.Equal(t, []string{far.ID, lost.ID}, offerIDs(result.Alternatives))
	assert.True(t, math.IsInf(result.Alternatives[1].DistanceToDestination, 1))
	assert.Equal(t, geo.Unknown, result.Alternatives[1].DistanceToDestination)
	assert.Zero(t, result.Alternatives[1].DistanceToOrigin)
}

func TestSearchOffers_UnlocatableQueryKeepsCandidateOrder(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	first := addOffer(store, "d1", "Lodz", "Gdansk", travelDay, 2, false)
	second := addOffer(store, "d2", "Poznan", "Lublin", travelDay, 2, false)

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Nowhere", Destination: "Elsewhere", Date: travelDay, PartySize: 1,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Exact)
	assert.Equal(t, []string{first.ID, second.ID}, offerIDs(result.Alternatives))
}

func TestSearchOffers_KeepsClosestAlternatives(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	geocoder := NewMockGeocoder(polishCities)
	search := newSearch(store, geocoder, 3)

	for i, city := range []string{"Gdansk", "Lodz", "Poznan", "Wroclaw", "Lublin", "Katowice"} {
		addOffer(store, fmt.Sprintf("d%d", i), "Warsaw", city, travelDay, 2, false)
	}

	result, err := search.SearchOffers(context.Background(), service.OfferSearchQuery{
		Origin: "Warsaw", Destination: "Krakow", Date: travelDay, PartySize: 1,
	})
	require.NoError(t, err)

	require.Len(t, result.Alternatives, 3)
	assert.Equal(t, "Katowice", result.Alternatives[0].Item.Destination)
	for i := 1; i < len(result.Alternatives); i++ {
		assert.LessOrEqual(t, result.Alternatives[i-1].DistanceToDestination, result.Alternatives[i].DistanceToDestination)
	}

	// Each distinct place is geocoded once per search.
	assert.Equal(t, 1, geocoder.Calls("Warsaw"))
	assert.Equal(t, 1, geocoder.Calls("Krakow"))
}

func TestSearchOffers_ValidatesQuery(t *testing.T) {
	t.Parallel()
	search := newSearch(NewMockStore(), NewMockGeocoder(nil), 5)
	ctx := context.Background()

	cases := []struct {
		name  string
		query service.OfferSearchQuery
		field string
	}{
		{"missing origin", service.OfferSearchQuery{Destination: "Krakow", Date: travelDay, PartySize: 1}, "origin"},
		{"missing destination", service.OfferSearchQuery{Origin: "Warsaw", Date: travelDay, PartySize: 1}, "destination"},
		{"no party", service.OfferSearchQuery{Origin: "Warsaw", Destination: "Krakow", Date: travelDay}, "party_size"},
		{"missing date", service.OfferSearchQuery{Origin: "Warsaw", Destination: "Krakow", PartySize: 1}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := search.SearchOffers(ctx, tc.query)
			require.ErrorIs(t, err, service.ErrValidation)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestSearchTrips_ExcludesOwnFullAndMatchedTrips(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	add := func(owner string, people int, pets bool) *domain.Trip {
		return store.AddTrip(&domain.Trip{
			UserID: owner, Origin: "Warsaw", Destination: "Krakow", Date: travelDay, People: people, Pets: pets,
		})
	}
	own := add("driver", 1, false)
	tooBig := add("alice", 4, false)
	matched := add("bob", 1, false)
	store.AddJoin(&domain.JoinRequest{
		UserID: "other-driver", TripID: matched.ID, Target: domain.ParentTrip, Status: domain.JoinStatusAccepted,
	})
	open := add("carol", 2, true)
	near := store.AddTrip(&domain.Trip{
		UserID: "dave", Origin: "Warsaw", Destination: "Katowice", Date: travelDay, People: 1,
	})

	result, err := search.SearchTrips(context.Background(), service.TripSearchQuery{
		ExcludeUserID: "driver", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, Seats: 3,
	})
	require.NoError(t, err)

	require.Len(t, result.Exact, 1)
	assert.Equal(t, open.ID, result.Exact[0].ID)
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, near.ID, result.Alternatives[0].Item.ID)

	for _, id := range []string{own.ID, tooBig.ID, matched.ID} {
		for _, trip := range result.Exact {
			assert.NotEqual(t, id, trip.ID)
		}
	}
}

func TestSearchTrips_PetsRequired(t *testing.T) {
	t.Parallel()
	store := NewMockStore()
	search := newSearch(store, NewMockGeocoder(polishCities), 5)

	store.AddTrip(&domain.Trip{UserID: "alice", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, People: 1})
	withPet := store.AddTrip(&domain.Trip{UserID: "bob", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, People: 1, Pets: true})

	result, err := search.SearchTrips(context.Background(), service.TripSearchQuery{
		ExcludeUserID: "driver", Origin: "Warsaw", Destination: "Krakow", Date: travelDay, Seats: 2, PetsRequired: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Exact, 1)
	assert.Equal(t, withPet.ID, result.Exact[0].ID)
}
