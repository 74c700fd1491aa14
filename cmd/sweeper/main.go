package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"akkord/internal/config"
	"akkord/internal/database"
	"akkord/internal/events"
	"akkord/internal/logging"
	"akkord/internal/worker"
)

// Разовый проход чистки просроченных броней. Для запуска по cron,
// когда постоянный процесс API не нужен.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	logger := baseLogger.With().Str("component", "sweeper-main").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bus := events.NewEventBus()
	sweeper := worker.NewSweeper(db, bus, nil, cfg.Reservation.SweepIntervalDuration(), &logger)

	n, err := sweeper.RunOnce(ctx, time.Now().UTC())
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return err
	}

	logger.Info().Int("expired", n).Msg("sweep finished")
	return nil
}
