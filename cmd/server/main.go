// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/courtsidehq/courtside/internal/api/auth"
	"github.com/courtsidehq/courtside/internal/api/bookings"
	"github.com/courtsidehq/courtside/internal/api/courts"
	"github.com/courtsidehq/courtside/internal/api/venues"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/ratelimit"
	"github.com/courtsidehq/courtside/internal/scheduler"
)

type serverConfig struct {
	Port            string
	Environment     string
	SecretKey       string
	ShutdownTimeout time.Duration
	Jobs            struct {
		ReconcileAggregates bool
		ExpireStalePending  bool
	}
}

func loadConfig() (*serverConfig, *config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	sc := &serverConfig{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		SecretKey:       getEnv("APP_SECRET_KEY", ""),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
	sc.Jobs.ReconcileAggregates = true
	sc.Jobs.ExpireStalePending = true

	// An explicit config file overrides the env defaults.
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		sc.Port = strconv.Itoa(cfg.App.Port)
		sc.Environment = cfg.App.Environment
		sc.SecretKey = cfg.App.SecretKey
		sc.Jobs.ReconcileAggregates = cfg.Jobs.ReconcileAggregates
		sc.Jobs.ExpireStalePending = cfg.Jobs.ExpireStalePending
		return sc, cfg, nil
	}

	return sc, nil, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	sc, cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(sc.Environment)

	if sc.SecretKey == "" {
		log.Fatal().Msg("APP_SECRET_KEY is required")
	}

	var database *db.DB
	if cfg != nil {
		database, err = db.NewFromConfig(cfg)
	} else {
		database, err = db.New(getEnv("DATABASE_FILE", "data/courtside.db"))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	limiter := ratelimit.New(nil)
	defer limiter.Close()

	auth.InitHandlers(database, sc.SecretKey, limiter)
	venues.InitHandlers(database)
	courts.InitHandlers(database)
	bookings.InitHandlers(database, limiter)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if sc.Jobs.ReconcileAggregates {
		if err := scheduler.RegisterAggregateReconciliation(database); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reconciliation job")
		}
	}
	if sc.Jobs.ExpireStalePending {
		if err := scheduler.RegisterStalePendingExpiry(database); err != nil {
			log.Fatal().Err(err).Msg("Failed to register expiry job")
		}
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	server := newServer(sc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", sc.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
