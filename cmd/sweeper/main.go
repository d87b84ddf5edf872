package main

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campushq/campus-api/internal/config"
	"github.com/campushq/campus-api/internal/database"
	"github.com/campushq/campus-api/internal/repository"
	"github.com/campushq/campus-api/internal/service"
)

// The sweeper runs as a scheduled job and marks every catch-up past its
// due date as overdue. It exits non-zero on failure so the scheduler can
// alert on it.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "catchup_sweeper").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	catchUps := service.NewCatchUpService(repository.NewCatchUpRepository(db), repository.NewUserRepository(db), validate, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated, err := catchUps.SweepOverdue(ctx, time.Now().UTC())
	if err != nil {
		logger.Fatal().Err(err).Msg("overdue sweep failed")
	}

	logger.Info().Int64("updated", updated).Msg("overdue sweep completed")
}
