package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/repository"
)

// Geocoder resolves a place name, returning nil when it cannot be located.
type Geocoder interface {
	Geocode(ctx context.Context, place string) *geo.Point
}

// OfferSearchQuery is a rider looking for seats.
type OfferSearchQuery struct {
	Origin       string    `json:"origin" validate:"required,max=200"`
	Destination  string    `json:"destination" validate:"required,max=200"`
	Date         time.Time `json:"date"`
	PartySize    int       `json:"party_size" validate:"gte=1,lte=50"`
	PetsRequired bool      `json:"pets"`
}

// TripSearchQuery is a driver looking for riders. Trips needing more than
// Seats places, and the caller's own trips, are never returned.
type TripSearchQuery struct {
	ExcludeUserID string    `json:"user_id" validate:"required"`
	Origin        string    `json:"origin" validate:"required,max=200"`
	Destination   string    `json:"destination" validate:"required,max=200"`
	Date          time.Time `json:"date"`
	Seats         int       `json:"seats" validate:"gte=1,lte=50"`
	PetsRequired  bool      `json:"pets"`
}

// Ranked is an alternative with its distances to the query's endpoints in km.
// Unlocatable endpoints yield geo.Unknown.
type Ranked[T any] struct {
	Item                  T
	DistanceToOrigin      float64
	DistanceToDestination float64
}

// SearchResult holds exact route matches and the nearest alternatives.
type SearchResult[T any] struct {
	Exact        []T
	Alternatives []Ranked[T]
}

type routed interface {
	Route() domain.Route
}

// SearchService finds trips and offers for a route and ranks near misses.
type SearchService struct {
	trips           repository.TripRepository
	offers          repository.OfferRepository
	geocoder        Geocoder
	validator       *Validator
	maxAlternatives int
	concurrency     int
	logger          zerolog.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(
	trips repository.TripRepository,
	offers repository.OfferRepository,
	geocoder Geocoder,
	validator *Validator,
	maxAlternatives int,
	concurrency int,
	logger zerolog.Logger,
) *SearchService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SearchService{
		trips:           trips,
		offers:          offers,
		geocoder:        geocoder,
		validator:       validator,
		maxAlternatives: maxAlternatives,
		concurrency:     concurrency,
		logger:          logger.With().Str("component", "search").Logger(),
	}
}

// SearchOffers returns offers for the query's route, day, party size and pets.
func (s *SearchService) SearchOffers(ctx context.Context, q OfferSearchQuery) (*SearchResult[*domain.Offer], error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	if q.Date.IsZero() {
		return nil, fieldError("date", "is required")
	}

	candidates, err := s.offers.ListForSearch(ctx, repository.OfferFilter{
		Date:         domain.Day(q.Date),
		MinSeats:     q.PartySize,
		PetsRequired: q.PetsRequired,
	})
	if err != nil {
		return nil, err
	}

	want := domain.Route{Origin: q.Origin, Destination: q.Destination, Date: q.Date}
	exact, rest := partition(candidates, want)

	s.logger.Debug().
		Str("origin", q.Origin).
		Str("destination", q.Destination).
		Int("exact", len(exact)).
		Int("candidates", len(rest)).
		Msg("offer search")

	return &SearchResult[*domain.Offer]{
		Exact:        exact,
		Alternatives: rankAlternatives(ctx, s.geocoder, s.concurrency, want, rest, s.maxAlternatives),
	}, nil
}

// SearchTrips returns unmatched trips of other users for the query's route and day.
func (s *SearchService) SearchTrips(ctx context.Context, q TripSearchQuery) (*SearchResult[*domain.Trip], error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	if q.Date.IsZero() {
		return nil, fieldError("date", "is required")
	}

	candidates, err := s.trips.ListForSearch(ctx, repository.TripFilter{
		Date:          domain.Day(q.Date),
		MaxPeople:     q.Seats,
		PetsRequired:  q.PetsRequired,
		ExcludeUserID: q.ExcludeUserID,
	})
	if err != nil {
		return nil, err
	}

	want := domain.Route{Origin: q.Origin, Destination: q.Destination, Date: q.Date}
	exact, rest := partition(candidates, want)

	s.logger.Debug().
		Str("origin", q.Origin).
		Str("destination", q.Destination).
		Int("exact", len(exact)).
		Int("candidates", len(rest)).
		Msg("trip search")

	return &SearchResult[*domain.Trip]{
		Exact:        exact,
		Alternatives: rankAlternatives(ctx, s.geocoder, s.concurrency, want, rest, s.maxAlternatives),
	}, nil
}

// partition splits candidates into exact route matches and everything else.
func partition[T routed](candidates []T, want domain.Route) (exact, rest []T) {
	exact = []T{}
	for _, c := range candidates {
		if c.Route().Matches(want) {
			exact = append(exact, c)
		} else {
			rest = append(rest, c)
		}
	}
	return exact, rest
}

// rankAlternatives orders items by distance between destinations, then
// between origins, then by date, and keeps the first limit.
func rankAlternatives[T routed](ctx context.Context, geocoder Geocoder, concurrency int, want domain.Route, items []T, limit int) []Ranked[T] {
	ranked := []Ranked[T]{}
	if len(items) == 0 || limit == 0 {
		return ranked
	}

	names := []string{want.Origin, want.Destination}
	for _, item := range items {
		r := item.Route()
		names = append(names, r.Origin, r.Destination)
	}
	points := geocodeAll(ctx, geocoder, concurrency, names)

	origin := points[domain.PlaceKey(want.Origin)]
	destination := points[domain.PlaceKey(want.Destination)]
	for _, item := range items {
		r := item.Route()
		ranked = append(ranked, Ranked[T]{
			Item:                  item,
			DistanceToOrigin:      geo.Distance(origin, points[domain.PlaceKey(r.Origin)]),
			DistanceToDestination: geo.Distance(destination, points[domain.PlaceKey(r.Destination)]),
		})
	}

	slices.SortStableFunc(ranked, func(a, b Ranked[T]) int {
		return cmp.Or(
			cmp.Compare(a.DistanceToDestination, b.DistanceToDestination),
			cmp.Compare(a.DistanceToOrigin, b.DistanceToOrigin),
			a.Item.Route().Date.Compare(b.Item.Route().Date),
		)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// geocodeAll looks each distinct canonical place up once, in parallel.
// Places that cannot be located map to nil.
func geocodeAll(ctx context.Context, geocoder Geocoder, concurrency int, names []string) map[string]*geo.Point {
	points := make(map[string]*geo.Point, len(names))
	if geocoder == nil {
		return points
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(concurrency)

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := domain.PlaceKey(name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		name := strings.TrimSpace(name)
		g.Go(func() error {
			p := geocoder.Geocode(ctx, name)
			mu.Lock()
			points[key] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return points
}
