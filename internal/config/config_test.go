package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Matching.MaxAlternatives)
	assert.True(t, cfg.Matching.LeaveRestoresSeats)
	assert.Equal(t, 10*time.Minute, cfg.Jobs.ReconcileInterval)
	assert.Equal(t, "https://api.openrouteservice.org", cfg.Geocoder.BaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ORS_API_URL", "http://geo.local/")
	t.Setenv("GEOCODER_RATE_PER_SECOND", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LEAVE_RESTORES_SEATS", "false")
	t.Setenv("RECONCILE_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://geo.local", cfg.Geocoder.BaseURL)
	assert.Equal(t, 2.5, cfg.Geocoder.RatePerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Matching.LeaveRestoresSeats)
	assert.Equal(t, 30*time.Second, cfg.Jobs.ReconcileInterval)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("GEOCODER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 5*time.Second, cfg.Geocoder.Timeout)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Setenv("GEOCODER_CONCURRENCY", "0")
	t.Setenv("GEOCODER_BURST", "0")
	t.Setenv("MATCHING_MAX_ALTERNATIVES", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_CONCURRENCY")
	assert.Contains(t, err.Error(), "GEOCODER_BURST")
	assert.Contains(t, err.Error(), "MATCHING_MAX_ALTERNATIVES")
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "carpool", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=carpool sslmode=disable", c.DSN())
}
