package geocoder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
)

// Lookuper resolves a single place name.
type Lookuper interface {
	Lookup(ctx context.Context, place string) (geo.Point, error)
}

// Cached fronts a Lookuper with the Redis place index and a negative cache,
// and collapses concurrent lookups of the same canonical place.
type Cached struct {
	next    Lookuper
	places  redis.PlaceStoreInterface
	misses  redis.UnknownPlaceCache
	missTTL time.Duration
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewCached creates a caching geocoder. places and misses may be nil.
func NewCached(next Lookuper, places redis.PlaceStoreInterface, misses redis.UnknownPlaceCache, missTTL time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		next:    next,
		places:  places,
		misses:  misses,
		missTTL: missTTL,
		logger:  logger.With().Str("component", "geocoder_cache").Logger(),
	}
}

// Geocode returns the coordinates of place, or nil when it cannot be located.
func (c *Cached) Geocode(ctx context.Context, place string) *geo.Point {
	key := domain.PlaceKey(place)
	if key == "" {
		return nil
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		return c.resolve(ctx, place, key), nil
	})
	p, _ := v.(*geo.Point)
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (c *Cached) resolve(ctx context.Context, place, key string) *geo.Point {
	if c.places != nil {
		p, err := c.places.GetPlace(ctx, key)
		if err != nil {
			c.logger.Warn().Err(err).Str("place", key).Msg("place cache read failed")
		} else if p != nil {
			return p
		}
	}

	if c.misses != nil {
		unknown, err := c.misses.IsUnknownPlace(ctx, key)
		if err != nil {
			c.logger.Warn().Err(err).Str("place", key).Msg("miss cache read failed")
		} else if unknown {
			return nil
		}
	}

	p, err := c.next.Lookup(ctx, place)
	if err != nil {
		if errors.Is(err, ErrNoMatch) && c.misses != nil {
			if err := c.misses.MarkUnknownPlace(ctx, key, c.missTTL); err != nil {
				c.logger.Warn().Err(err).Str("place", key).Msg("miss cache write failed")
			}
		}
		c.logger.Warn().Err(err).Str("place", place).Msg("geocoding failed")
		return nil
	}

	if c.places != nil {
		if err := c.places.SavePlace(ctx, key, p); err != nil {
			c.logger.Warn().Err(err).Str("place", key).Msg("place cache write failed")
		}
	}
	return &p
}
