package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cronwatch-dev/cronwatch/db"
	"github.com/cronwatch-dev/cronwatch/internal/auth"
	"github.com/cronwatch-dev/cronwatch/internal/events"
	"github.com/cronwatch-dev/cronwatch/internal/handlers"
	"github.com/cronwatch-dev/cronwatch/internal/monitors"
	"github.com/cronwatch-dev/cronwatch/internal/router"
	"github.com/cronwatch-dev/cronwatch/internal/scheduler"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatal().Err(err).Msg("JWT secret not configured")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Failure events fan out to the per-project websocket feed; anything
	// beyond that (paging, email) is outside this service.
	emitter := events.NewEmitter(events.ObserverFunc(handlers.BroadcastMonitorFailure))

	handlers.InitCheckInService(monitors.NewService(db.DB, emitter))

	sweepInterval := time.Minute
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("Invalid SWEEP_INTERVAL")
		}
		sweepInterval = parsed
	}

	scheduler.Initialize(db.DB, emitter, sweepInterval)
	defer scheduler.Shutdown()

	r := router.NewRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
		log.Info().Msg("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
