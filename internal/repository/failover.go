package repository

import (
	"context"
	"sync/atomic"
	"time"

	"akkord/internal/domain"
	"akkord/internal/models"

	"github.com/rs/zerolog"
)

// FailoverItemCache переключается на запасной кэш при ошибке основного
// и пробует вернуться на основной раз в минуту.
type FailoverItemCache struct {
	primary   domain.ItemCache
	fallback  domain.ItemCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverItemCache(primary, fallback domain.ItemCache, logger *zerolog.Logger) *FailoverItemCache {
	return &FailoverItemCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverItemCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary item cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverItemCache) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	if !r.isDown.Load() {
		item, err := r.primary.GetItem(ctx, id)
		if err == nil {
			return item, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		item, err := r.primary.GetItem(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			return item, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetItem(ctx, id)
}

func (r *FailoverItemCache) SetItem(ctx context.Context, item *models.Item) error {
	if !r.isDown.Load() {
		err := r.primary.SetItem(ctx, item)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetItem(ctx, item)
}

func (r *FailoverItemCache) GetList(ctx context.Context, key string) ([]*models.Item, error) {
	if !r.isDown.Load() {
		items, err := r.primary.GetList(ctx, key)
		if err == nil {
			return items, nil
		}
		r.markDown(err)
	}

	return r.fallback.GetList(ctx, key)
}

func (r *FailoverItemCache) SetList(ctx context.Context, key string, items []*models.Item) error {
	if !r.isDown.Load() {
		err := r.primary.SetList(ctx, key, items)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetList(ctx, key, items)
}

// InvalidateItem чистит оба кэша: после восстановления основного
// в нём не должно остаться устаревших снапшотов.
func (r *FailoverItemCache) InvalidateItem(ctx context.Context, id int64) error {
	if !r.isDown.Load() {
		if err := r.primary.InvalidateItem(ctx, id); err != nil {
			r.markDown(err)
		}
	}
	return r.fallback.InvalidateItem(ctx, id)
}

func (r *FailoverItemCache) InvalidateAll(ctx context.Context) error {
	if !r.isDown.Load() {
		if err := r.primary.InvalidateAll(ctx); err != nil {
			r.markDown(err)
		}
	}
	return r.fallback.InvalidateAll(ctx)
}
