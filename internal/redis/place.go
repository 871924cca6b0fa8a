package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/geo"
)

const placeLocationKey = "places:locations"

// PlaceStore keeps geocoded place coordinates in a Redis geo index,
// keyed by canonical place name.
type PlaceStore struct {
	client *redis.Client
}

// NewPlaceStore creates a new PlaceStore.
func NewPlaceStore(client *redis.Client) *PlaceStore {
	return &PlaceStore{client: client}
}

// SavePlace stores a place's coordinates using GEOADD.
func (s *PlaceStore) SavePlace(ctx context.Context, key string, p geo.Point) error {
	return s.client.GeoAdd(ctx, placeLocationKey, &redis.GeoLocation{
		Name:      key,
		Longitude: p.Lon,
		Latitude:  p.Lat,
	}).Err()
}

// GetPlace returns the stored coordinates, or nil when the place is unknown.
func (s *PlaceStore) GetPlace(ctx context.Context, key string) (*geo.Point, error) {
	positions, err := s.client.GeoPos(ctx, placeLocationKey, key).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &geo.Point{Lat: positions[0].Latitude, Lon: positions[0].Longitude}, nil
}

