package database

import (
	"context"
	"testing"
	"time"

	"akkord/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrdersByUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "500")
	first := createTestItem(t, db, owner.ID, "100")
	second := createTestItem(t, db, owner.ID, "200")

	_, err := db.BookItem(ctx, first.ID, buyer.ID, time.Hour)
	require.NoError(t, err)
	_, err = db.PurchaseItem(ctx, second.ID, buyer.ID)
	require.NoError(t, err)

	all, err := db.GetOrdersByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := db.GetActiveOrdersByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ItemID)
	assert.Equal(t, models.OrderStatusConfirmed, active[0].Status)
}

func TestGetOrderByReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "0")
	item := createTestItem(t, db, owner.ID, "100")

	order, err := db.BookItem(ctx, item.ID, buyer.ID, time.Hour)
	require.NoError(t, err)

	got, err := db.GetOrderByReference(ctx, order.Reference)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = db.GetOrderByReference(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCountOrdersByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "500")
	first := createTestItem(t, db, owner.ID, "100")
	second := createTestItem(t, db, owner.ID, "100")

	_, err := db.BookItem(ctx, first.ID, buyer.ID, time.Hour)
	require.NoError(t, err)
	_, err = db.PurchaseItem(ctx, second.ID, buyer.ID)
	require.NoError(t, err)

	confirmed, err := db.CountOrdersByStatus(ctx, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, confirmed)

	completed, err := db.CountOrdersByStatus(ctx, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, completed)
}

// Смена статуса заказа пересчитывает позицию из истории в той же транзакции.
func TestUpdateOrderStatus_ReconcilesItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "0")
	item := createTestItem(t, db, owner.ID, "100")

	order, err := db.BookItem(ctx, item.ID, buyer.ID, time.Hour)
	require.NoError(t, err)

	updated, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusAvailable, got.Status)
	assert.True(t, got.CheckInvariants())
}

func TestUpdateOrderStatus_CompletedSetsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "0")
	item := createTestItem(t, db, owner.ID, "100")

	order, err := db.BookItem(ctx, item.ID, buyer.ID, time.Hour)
	require.NoError(t, err)
	require.Nil(t, order.CompletedAt)

	updated, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusSold, got.Status)
	require.NotNil(t, got.BuyerID)
	assert.Equal(t, buyer.ID, *got.BuyerID)
}

// completed_at существует только у завершённых заказов: уход из completed снимает метку.
func TestUpdateOrderStatus_LeavingCompletedClearsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "200")
	item := createTestItem(t, db, owner.ID, "100")

	order, err := db.PurchaseItem(ctx, item.ID, buyer.ID)
	require.NoError(t, err)
	require.NotNil(t, order.CompletedAt)

	updated, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	stored, err := db.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompletedAt)

	// Возврат в completed ставит метку заново
	restored, err := db.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, restored.CompletedAt)
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.UpdateOrderStatus(context.Background(), 9999, models.OrderStatusCancelled, time.Hour)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder_ReconcilesItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "0")
	item := createTestItem(t, db, owner.ID, "100")

	order, err := db.BookItem(ctx, item.ID, buyer.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, db.DeleteOrder(ctx, order.ID, time.Hour))

	_, err = db.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// История пуста, позиция возвращается в available
	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusAvailable, got.Status)
	assert.True(t, got.CheckInvariants())
}

func TestGetRevenueByPeriod(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@test", "0")
	buyer := createTestUser(t, db, "buyer@test", "1000")
	first := createTestItem(t, db, owner.ID, "100.50")
	second := createTestItem(t, db, owner.ID, "200")
	third := createTestItem(t, db, owner.ID, "300")

	_, err := db.PurchaseItem(ctx, first.ID, buyer.ID)
	require.NoError(t, err)
	_, err = db.PurchaseItem(ctx, second.ID, buyer.ID)
	require.NoError(t, err)
	// Бронь не учитывается в выручке
	_, err = db.BookItem(ctx, third.ID, buyer.ID, time.Hour)
	require.NoError(t, err)

	revenue, err := db.GetRevenueByPeriod(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.RequireFromString("300.50")), "revenue: %s", revenue)

	empty, err := db.GetRevenueByPeriod(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
