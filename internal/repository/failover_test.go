package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"akkord/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *mockCache) SetItem(ctx context.Context, item *models.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCache) GetList(ctx context.Context, key string) ([]*models.Item, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *mockCache) SetList(ctx context.Context, key string, items []*models.Item) error {
	return m.Called(ctx, key, items).Error(0)
}

func (m *mockCache) InvalidateItem(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestFailoverItemCache_PrimaryHealthy(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverItemCache(primary, fallback, &logger)
	ctx := context.Background()

	item := &models.Item{ID: 1}
	primary.On("GetItem", ctx, int64(1)).Return(item, nil)

	got, err := cache.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, item, got)
	fallback.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
}

func TestFailoverItemCache_FallsBackOnError(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverItemCache(primary, fallback, &logger)
	ctx := context.Background()

	item := &models.Item{ID: 1}
	primary.On("GetItem", ctx, int64(1)).Return(nil, errors.New("connection refused")).Once()
	fallback.On("GetItem", ctx, int64(1)).Return(item, nil)

	got, err := cache.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, item, got)
	assert.True(t, cache.isDown.Load())

	// Пока primary помечен недоступным, запросы идут в fallback без попыток primary
	got, err = cache.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, item, got)
	primary.AssertNumberOfCalls(t, "GetItem", 1)
}

func TestFailoverItemCache_SetFallsBack(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverItemCache(primary, fallback, &logger)
	ctx := context.Background()

	item := &models.Item{ID: 1}
	primary.On("SetItem", ctx, item).Return(errors.New("down")).Once()
	fallback.On("SetItem", ctx, item).Return(nil)

	require.NoError(t, cache.SetItem(ctx, item))
	assert.True(t, cache.isDown.Load())
}

func TestFailoverItemCache_InvalidateBoth(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	cache := NewFailoverItemCache(primary, fallback, &logger)
	ctx := context.Background()

	primary.On("InvalidateItem", ctx, int64(1)).Return(nil)
	fallback.On("InvalidateItem", ctx, int64(1)).Return(nil)

	require.NoError(t, cache.InvalidateItem(ctx, 1))
	primary.AssertCalled(t, "InvalidateItem", ctx, int64(1))
	fallback.AssertCalled(t, "InvalidateItem", ctx, int64(1))
}
