package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Geocoder GeocoderConfig
	Matching MatchingConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	DBName           string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	MigrateOnStartup bool
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// GeocoderConfig holds the place-name geocoding provider settings.
type GeocoderConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MissTTL       time.Duration // how long "no match" answers are remembered
	Concurrency   int           // parallel lookups per search
}

// MatchingConfig holds search and join policy settings.
type MatchingConfig struct {
	MaxAlternatives    int
	LeaveRestoresSeats bool
}

// JobsConfig holds background job schedules.
type JobsConfig struct {
	ReconcileInterval time.Duration
	ExpiryInterval    time.Duration
	LockTTL           time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load loads configuration from environment variables, after reading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", "postgres"),
			DBName:           getEnv("DB_NAME", "carpool"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:     getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:     getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime:  getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:  getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrateOnStartup: getBoolEnv("DB_MIGRATE_ON_STARTUP", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "carpool"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Geocoder: GeocoderConfig{
			BaseURL:       strings.TrimRight(getEnv("ORS_API_URL", "https://api.openrouteservice.org"), "/"),
			APIKey:        getEnv("ORS_API_KEY", ""),
			Timeout:       getDurationEnv("GEOCODER_TIMEOUT", 5*time.Second),
			RatePerSecond: getFloatEnv("GEOCODER_RATE_PER_SECOND", 10),
			Burst:         getIntEnv("GEOCODER_BURST", 5),
			MissTTL:       getDurationEnv("GEOCODER_MISS_TTL", 6*time.Hour),
			Concurrency:   getIntEnv("GEOCODER_CONCURRENCY", 8),
		},
		Matching: MatchingConfig{
			MaxAlternatives:    getIntEnv("MATCHING_MAX_ALTERNATIVES", 5),
			LeaveRestoresSeats: getBoolEnv("LEAVE_RESTORES_SEATS", true),
		},
		Jobs: JobsConfig{
			ReconcileInterval: getDurationEnv("RECONCILE_INTERVAL", 10*time.Minute),
			ExpiryInterval:    getDurationEnv("EXPIRY_INTERVAL", 24*time.Hour),
			LockTTL:           getDurationEnv("JOB_LOCK_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getBoolEnv("LOG_PRETTY", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT must not be empty"))
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, errors.New("ORS_API_URL must not be empty"))
	}
	if c.Geocoder.RatePerSecond <= 0 {
		errs = append(errs, errors.New("GEOCODER_RATE_PER_SECOND must be positive"))
	}
	if c.Geocoder.Burst < 1 {
		errs = append(errs, errors.New("GEOCODER_BURST must be at least 1"))
	}
	if c.Geocoder.Concurrency < 1 {
		errs = append(errs, errors.New("GEOCODER_CONCURRENCY must be at least 1"))
	}
	if c.Matching.MaxAlternatives < 0 {
		errs = append(errs, errors.New("MATCHING_MAX_ALTERNATIVES must not be negative"))
	}
	if c.Jobs.ReconcileInterval <= 0 || c.Jobs.ExpiryInterval <= 0 {
		errs = append(errs, errors.New("job intervals must be positive"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
