// Package geocoder resolves place names to coordinates through the
// OpenRouteService geocoding API.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"carpool/internal/config"
	"carpool/internal/geo"
)

var (
	// ErrNoMatch is returned when the provider has no result for a place.
	ErrNoMatch = errors.New("geocoder: no match")

	// ErrUpstream is returned when the provider answers with an error status.
	ErrUpstream = errors.New("geocoder: upstream error")
)

// searchResponse is the subset of the GeoJSON answer we read.
type searchResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"features"`
}

// Client calls the provider's /geocode/search endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
	logger      zerolog.Logger
}

// NewClient creates a new geocoding client. Outbound requests carry a New
// Relic external segment when the context holds a transaction.
func NewClient(cfg config.GeocoderConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newrelic.NewRoundTripper(nil),
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		logger:      logger.With().Str("component", "geocoder").Logger(),
	}
}

// wait blocks until rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

// Lookup returns the best match for place.
func (c *Client) Lookup(ctx context.Context, place string) (geo.Point, error) {
	if err := c.wait(ctx); err != nil {
		return geo.Point{}, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("text", place)
	searchURL := c.baseURL + "/geocode/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug().Str("place", place).Msg("geocoding place")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return geo.Point{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, fmt.Errorf("parse response: %w", err)
	}
	if len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return geo.Point{}, ErrNoMatch
	}

	coords := body.Features[0].Geometry.Coordinates
	return geo.Point{Lat: coords[1], Lon: coords[0]}, nil
}

// Geocode is Lookup with every failure reported as an unknown place.
func (c *Client) Geocode(ctx context.Context, place string) *geo.Point {
	p, err := c.Lookup(ctx, place)
	if err != nil {
		c.logger.Warn().Err(err).Str("place", place).Msg("geocoding failed")
		return nil
	}
	return &p
}
