package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"akkord/internal/domain"
	"akkord/internal/events"
	"akkord/internal/metrics"
)

// Sweeper периодически находит просроченные брони и возвращает позиции в продажу.
// Все изменения одной итерации выполняются в одной транзакции хранилища.
type Sweeper struct {
	store    domain.Store
	bus      domain.EventPublisher
	cache    domain.ItemCache
	interval time.Duration
	retry    RetryPolicy
	logger   zerolog.Logger
}

func NewSweeper(store domain.Store, bus domain.EventPublisher, cache domain.ItemCache, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		bus:      bus,
		cache:    cache,
		interval: interval,
		retry: RetryPolicy{
			MaxRetries:    3,
			InitialDelay:  2 * time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2,
		},
		logger: logger.With().Str("component", "sweeper").Logger(),
	}
}

// Start запускает цикл до отмены контекста. Первый проход выполняется сразу.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")

	s.sweepWithRetry(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.sweepWithRetry(ctx)
		}
	}
}

func (s *Sweeper) sweepWithRetry(ctx context.Context) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxRetries; attempt++ {
		n, err := s.RunOnce(ctx, time.Now().UTC())
		if err == nil {
			if n > 0 {
				s.logger.Info().Int("expired", n).Msg("sweep completed")
			}
			return
		}
		lastErr = err
		if ctx.Err() != nil {
			return
		}
		delay := s.retry.NextDelay(attempt)
		s.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("sweep failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	s.logger.Error().Err(lastErr).Msg("sweep failed after retries")
}

// RunOnce обрабатывает все брони с истёкшим сроком на момент now.
// Возвращает число освобождённых позиций.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ExpireReservations(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	metrics.AddExpired(len(expired))

	for _, item := range expired {
		if s.cache != nil {
			if err := s.cache.InvalidateItem(ctx, item.ID); err != nil {
				s.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("cache invalidate failed")
			}
		}
		if s.bus != nil {
			payload := events.OrderEventPayload{
				ItemID:    item.ID,
				ChangedBy: "sweeper",
			}
			if item.ReservedBy != nil {
				payload.UserID = *item.ReservedBy
			}
			if err := s.bus.PublishJSON(events.EventBookingExpired, payload); err != nil {
				s.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("publish expired event failed")
			}
		}
		s.logger.Info().
			Int64("item_id", item.ID).
			Msg("reservation expired, item released")
	}

	return len(expired), nil
}
