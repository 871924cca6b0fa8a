package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/geocoder"
	"carpool/internal/handler"
	"carpool/internal/jobs"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize New Relic")
		} else {
			logger.Info().Str("app", cfg.NewRelic.AppName).Msg("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	logger.Info().Msg("connected to PostgreSQL")

	if cfg.Database.MigrateOnStartup {
		if err := app.RunMigrations(ctx, db, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to Redis")

	server, background := wireServer(db, redisClient, nrApp, cfg, logger)

	runCtx, stopJobs := context.WithCancel(context.Background())
	runner := jobs.NewRunner(internalRedis.NewLockStore(redisClient), cfg.Jobs.LockTTL, nrApp, logger)
	runner.Start(runCtx, background...)

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	stopJobs()
	runner.Wait()

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info().Msg("server exited")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "carpool").Logger()
}

// wireServer wires all dependencies and returns the HTTP server together
// with the background jobs to schedule.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger zerolog.Logger) (*http.Server, []jobs.Job) {
	// Initialize Redis stores.
	placeStore := internalRedis.NewPlaceStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	publisher := internalRedis.NewNotificationPublisher(redisClient)

	// Initialize repositories.
	store := postgres.NewStore(db)
	repos := store.Repositories()

	// Initialize geocoding.
	client := geocoder.NewClient(cfg.Geocoder, logger)
	places := geocoder.NewCached(client, placeStore, cacheStore, cfg.Geocoder.MissTTL, logger)

	// Initialize services.
	validator := service.NewValidator()
	notificationService := service.NewNotificationService(repos.Notifications, publisher, logger)
	reconciler := service.NewReconciler(repos, logger)
	joinService := service.NewJoinService(store, reconciler, notificationService, service.JoinPolicy{
		RestoreSeatsOnLeave: cfg.Matching.LeaveRestoresSeats,
	}, logger)
	searchService := service.NewSearchService(
		repos.Trips, repos.Offers, places, validator,
		cfg.Matching.MaxAlternatives, cfg.Geocoder.Concurrency, logger,
	)
	tripService := service.NewTripService(repos.Trips, repos.Joins, validator)
	offerService := service.NewOfferService(repos.Offers, repos.Joins, validator)
	chatService := service.NewChatService(repos.Trips, repos.Offers, repos.Joins)
	expiryService := service.NewExpiryService(repos.Trips, repos.Offers, logger)

	// Initialize handlers.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:         handler.NewTripHandler(tripService),
		OfferHandler:        handler.NewOfferHandler(offerService),
		JoinHandler:         handler.NewJoinHandler(joinService, tripService, offerService),
		SearchHandler:       handler.NewSearchHandler(searchService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		ChatHandler:         handler.NewChatHandler(chatService),
		GeocodeHandler:      handler.NewGeocodeHandler(places),
		AdminHandler:        handler.NewAdminHandler(reconciler, expiryService),
		ResponseCache:       redisClient,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		NewRelicApp:         nrApp,
		Logger:              logger,
	})

	background := []jobs.Job{
		{
			Name:       "expiry",
			Interval:   cfg.Jobs.ExpiryInterval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := expiryService.Sweep(ctx)
				return err
			},
		},
		{
			Name:       "reconcile",
			Interval:   cfg.Jobs.ReconcileInterval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := reconciler.Sweep(ctx)
				return err
			},
		},
	}

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, background
}
