package service

import (
	"context"

	"akkord/internal/domain"
	"akkord/internal/models"

	"github.com/rs/zerolog"
)

const (
	cacheKeyAllItems       = "items:all"
	cacheKeyAvailableItems = "items:available"
)

// ItemService обслуживает каталожные чтения через кэш снапшотов.
type ItemService struct {
	store  domain.Store
	cache  domain.ItemCache
	logger *zerolog.Logger
}

func NewItemService(store domain.Store, cache domain.ItemCache, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *ItemService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	if s.cache != nil {
		if item, err := s.cache.GetItem(ctx, id); err == nil && item != nil {
			return item, nil
		}
	}

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetItem(ctx, item); err != nil {
			s.logger.Error().Err(err).Int64("item_id", id).Msg("cache set error")
		}
	}
	return item, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]*models.Item, error) {
	return s.listThroughCache(ctx, cacheKeyAllItems, s.store.GetAllItems)
}

func (s *ItemService) ListAvailableItems(ctx context.Context) ([]*models.Item, error) {
	return s.listThroughCache(ctx, cacheKeyAvailableItems, s.store.GetAvailableItems)
}

func (s *ItemService) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.store.CreateItem(ctx, item); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Error().Err(err).Msg("cache invalidate error")
		}
	}
	return nil
}

func (s *ItemService) listThroughCache(ctx context.Context, key string, load func(context.Context) ([]*models.Item, error)) ([]*models.Item, error) {
	if s.cache != nil {
		if items, err := s.cache.GetList(ctx, key); err == nil && items != nil {
			return items, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetList(ctx, key, items); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("cache set error")
		}
	}
	return items, nil
}
