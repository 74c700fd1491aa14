package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"akkord/internal/config"
	"akkord/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisItemCache хранит JSON-снапшоты позиций. Источник истины всегда SQLite,
// кэш инвалидируется при любой смене статуса.
type RedisItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisItemCache(client *redis.Client, ttl time.Duration) *RedisItemCache {
	return &RedisItemCache{
		client: client,
		ttl:    ttl,
	}
}

func itemKey(id int64) string {
	return fmt.Sprintf("item:%d", id)
}

func listKey(key string) string {
	return "item_list:" + key
}

func (r *RedisItemCache) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, itemKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item from redis: %w", err)
	}

	var item models.Item
	if err := json.Unmarshal([]byte(val), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return &item, nil
}

func (r *RedisItemCache) SetItem(ctx context.Context, item *models.Item) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if err := r.client.Set(ctx, itemKey(item.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set item in redis: %w", err)
	}

	return nil
}

func (r *RedisItemCache) GetList(ctx context.Context, key string) ([]*models.Item, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, listKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item list from redis: %w", err)
	}

	var items []*models.Item
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item list: %w", err)
	}

	return items, nil
}

func (r *RedisItemCache) SetList(ctx context.Context, key string, items []*models.Item) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal item list: %w", err)
	}

	if err := r.client.Set(ctx, listKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set item list in redis: %w", err)
	}

	return nil
}

// InvalidateItem удаляет снапшот позиции и все списочные ключи:
// смена статуса одной позиции меняет состав списков.
func (r *RedisItemCache) InvalidateItem(ctx context.Context, id int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, itemKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete item from redis: %w", err)
	}
	return r.invalidateLists(ctx)
}

func (r *RedisItemCache) InvalidateAll(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, "item:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan item keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete item keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return r.invalidateLists(ctx)
}

func (r *RedisItemCache) invalidateLists(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, "item_list:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan list keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete list keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
