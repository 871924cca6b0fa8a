package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const unknownPlacePrefix = "cache:geocode:miss:"

// CacheStore remembers short-lived answers, such as place names the
// geocoding provider could not resolve.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// MarkUnknownPlace records that key had no geocoding match.
func (s *CacheStore) MarkUnknownPlace(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, unknownPlacePrefix+key, "1", ttl).Err()
}

// IsUnknownPlace reports whether key is remembered as having no match.
func (s *CacheStore) IsUnknownPlace(ctx context.Context, key string) (bool, error) {
	err := s.client.Get(ctx, unknownPlacePrefix+key).Err()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
