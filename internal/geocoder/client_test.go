package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.GeocoderConfig{
		BaseURL:       server.URL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RatePerSecond: 1000,
		Burst:         10,
	}, zerolog.Nop())
}

func TestClient_Lookup(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantLat    float64
		wantLon    float64
		wantErr    error
	}{
		{
			name:       "first feature wins",
			statusCode: http.StatusOK,
			body: `{"features":[
				{"geometry":{"coordinates":[19.945,50.0647]}},
				{"geometry":{"coordinates":[1,1]}}
			]}`,
			wantLat: 50.0647,
			wantLon: 19.945,
		},
		{
			name:       "no features",
			statusCode: http.StatusOK,
			body:       `{"features":[]}`,
			wantErr:    ErrNoMatch,
		},
		{
			name:       "short coordinates",
			statusCode: http.StatusOK,
			body:       `{"features":[{"geometry":{"coordinates":[19.9]}}]}`,
			wantErr:    ErrNoMatch,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantErr:    ErrUpstream,
		},
		{
			name:       "quota exhausted",
			statusCode: http.StatusForbidden,
			wantErr:    ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			p, err := client.Lookup(context.Background(), "Krakow")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, p.Lat)
			assert.Equal(t, tt.wantLon, p.Lon)
		})
	}
}

func TestClient_Lookup_SendsQuery(t *testing.T) {
	var gotPath, gotKey, gotText string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotText = r.URL.Query().Get("text")
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[21.0,52.2]}}]}`))
	})

	_, err := client.Lookup(context.Background(), "Nowy Sącz")
	require.NoError(t, err)

	assert.Equal(t, "/geocode/search", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Nowy Sącz", gotText)
}

func TestClient_Geocode_AbsorbsErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	assert.Nil(t, client.Geocode(context.Background(), "Krakow"))
}

func TestClient_Lookup_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, "Krakow")
	assert.Error(t, err)
}
