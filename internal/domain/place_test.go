package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Krakow", "krakow"},
		{"Kraków", "krakow"},
		{"  KRAKOW ", "krakow"},
		{"Nowy   Sącz", "nowy sacz"},
		{"Łódź", "łodz"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, PlaceKey(tc.in))
		})
	}
}

func TestSamePlace_NoSubstringMatch(t *testing.T) {
	assert.True(t, SamePlace("Warszawa", "warszawa"))
	assert.False(t, SamePlace("Krakow Airport", "Krakow"))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	c := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDay("2024-06-01T15:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDay("01/06/2024")
	assert.Error(t, err)
}

func TestRouteMatches(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := Route{Origin: "Warsaw", Destination: "Kraków", Date: day}

	assert.True(t, r.Matches(Route{Origin: "warsaw", Destination: "Krakow", Date: day.Add(5 * time.Hour)}))
	assert.False(t, r.Matches(Route{Origin: "Warsaw", Destination: "Gdansk", Date: day}))
	assert.False(t, r.Matches(Route{Origin: "Warsaw", Destination: "Krakow", Date: day.AddDate(0, 0, 1)}))
}

func TestJoinRequest_ParentID(t *testing.T) {
	j := JoinRequest{TripID: "t1", OfferID: "o1", Target: ParentOffer}
	assert.Equal(t, "o1", j.ParentID())
	j.Target = ParentTrip
	assert.Equal(t, "t1", j.ParentID())
	assert.True(t, j.IsLinked())
	assert.True(t, JoinStatusAccepted.IsTerminal())
	assert.False(t, JoinStatusPending.IsTerminal())
}
