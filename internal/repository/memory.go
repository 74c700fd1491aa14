package repository

import (
	"context"
	"sync"
	"time"

	"akkord/internal/models"
)

type memoryEntry struct {
	item      *models.Item
	expiresAt time.Time
}

type memoryListEntry struct {
	items     []*models.Item
	expiresAt time.Time
}

// MemoryItemCache используется как запасной кэш, когда Redis недоступен
// или выключен в конфигурации.
type MemoryItemCache struct {
	mu    sync.RWMutex
	items map[int64]memoryEntry
	lists map[string]memoryListEntry
	ttl   time.Duration
}

func NewMemoryItemCache(ttl time.Duration) *MemoryItemCache {
	return &MemoryItemCache{
		items: make(map[int64]memoryEntry),
		lists: make(map[string]memoryListEntry),
		ttl:   ttl,
	}
}

func (r *MemoryItemCache) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	r.mu.RLock()
	entry, ok := r.items[id]
	r.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.item, nil
}

func (r *MemoryItemCache) SetItem(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	r.items[item.ID] = memoryEntry{item: item, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemoryItemCache) GetList(ctx context.Context, key string) ([]*models.Item, error) {
	r.mu.RLock()
	entry, ok := r.lists[key]
	r.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.items, nil
}

func (r *MemoryItemCache) SetList(ctx context.Context, key string, items []*models.Item) error {
	r.mu.Lock()
	r.lists[key] = memoryListEntry{items: items, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemoryItemCache) InvalidateItem(ctx context.Context, id int64) error {
	r.mu.Lock()
	delete(r.items, id)
	r.lists = make(map[string]memoryListEntry)
	r.mu.Unlock()
	return nil
}

func (r *MemoryItemCache) InvalidateAll(ctx context.Context) error {
	r.mu.Lock()
	r.items = make(map[int64]memoryEntry)
	r.lists = make(map[string]memoryListEntry)
	r.mu.Unlock()
	return nil
}
