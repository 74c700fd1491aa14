package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"akkord/internal/api"
	"akkord/internal/config"
	"akkord/internal/database"
	"akkord/internal/domain"
	"akkord/internal/events"
	"akkord/internal/logging"
	"akkord/internal/metrics"
	"akkord/internal/models"
	"akkord/internal/repository"
	"akkord/internal/service"
	"akkord/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if err := seedLedger(cfg, db, &logger); err != nil {
		return err
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	cache := initCache(cfg, redisClient, &logger)
	bus := events.NewEventBus()
	subscribeAuditLog(bus, &logger)

	ttl := cfg.Reservation.TTLDuration()
	svc := api.Services{
		Reservations: service.NewReservationService(db, bus, cache, ttl, &logger),
		Balances:     service.NewBalanceService(db, bus, &logger),
		Orders:       service.NewOrderService(db, bus, cache, ttl, &logger),
		Items:        service.NewItemService(db, cache, &logger),
		Users:        service.NewUserService(db, &logger),
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(db, bus, cache, cfg.Reservation.SweepIntervalDuration(), &logger)
	go sweeper.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(db, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// seedLedger загружает стартовых пользователей и позиции из seed-файла.
// Выполняется только на пустой базе.
func seedLedger(cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	seedPath := cfg.Seed.Path
	if env := os.Getenv("SEED_PATH"); env != "" {
		seedPath = env
	}
	if seedPath == "" {
		return nil
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return err
	}

	// Денежные поля в YAML держим строками и парсим сами
	var seed struct {
		Users []struct {
			Email   string `yaml:"email"`
			Name    string `yaml:"name"`
			IsAdmin bool   `yaml:"is_admin"`
			Balance string `yaml:"balance"`
		} `yaml:"users"`
		Items []struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
			Price       string `yaml:"price"`
			OwnerID     int64  `yaml:"owner_id"`
		} `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed")
		return err
	}

	ctx := context.Background()
	existing, err := db.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info().Msg("database not empty, skipping seed")
		return nil
	}

	for _, u := range seed.Users {
		balance := decimal.Zero
		if u.Balance != "" {
			balance, err = decimal.NewFromString(u.Balance)
			if err != nil {
				return fmt.Errorf("seed user %q: bad balance: %w", u.Email, err)
			}
		}
		user := &models.User{Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin, Balance: balance}
		if err := db.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
	}
	for _, it := range seed.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return fmt.Errorf("seed item %q: bad price: %w", it.Name, err)
		}
		item := &models.Item{Name: it.Name, Description: it.Description, Price: price, OwnerID: it.OwnerID}
		if err := db.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("seed item %q: %w", it.Name, err)
		}
	}

	logger.Info().Int("users", len(seed.Users)).Int("items", len(seed.Items)).Msg("seed loaded")
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.ItemCache {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	memory := repository.NewMemoryItemCache(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisItemCache(redisClient, ttl)
	return repository.NewFailoverItemCache(primary, memory, logger)
}

// subscribeAuditLog пишет все события движка в журнал.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logger.With().Str("component", "audit").Logger()
	handler := func(event *events.Event) error {
		audit.Info().
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("ledger event")
		return nil
	}
	for _, eventType := range []string{
		events.EventItemBooked,
		events.EventItemSold,
		events.EventBookingCancelled,
		events.EventBookingExpired,
		events.EventBalanceCredited,
		events.EventOrderStatusChanged,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
