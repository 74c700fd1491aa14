package service

import (
	"context"
	"fmt"
	"time"

	"akkord/internal/domain"
	"akkord/internal/events"
	"akkord/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderService обслуживает журнал заказов: чтения и административные правки.
// Любая правка статуса пересчитывает статус позиции в той же транзакции.
type OrderService struct {
	store  domain.Store
	bus    domain.EventPublisher
	cache  domain.ItemCache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewOrderService(store domain.Store, bus domain.EventPublisher, cache domain.ItemCache, ttl time.Duration, logger *zerolog.Logger) *OrderService {
	if ttl <= 0 {
		ttl = time.Duration(models.DefaultReservationTTL) * time.Second
	}
	return &OrderService{
		store:  store,
		bus:    bus,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.store.GetOrdersByUser(ctx, userID)
}

func (s *OrderService) GetUserActiveOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.store.GetActiveOrdersByUser(ctx, userID)
}

func (s *OrderService) GetItemOrders(ctx context.Context, itemID int64) ([]*models.Order, error) {
	return s.store.GetOrdersByItem(ctx, itemID)
}

func (s *OrderService) GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	return s.store.GetOrdersByStatus(ctx, status)
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("unknown order status %q", newStatus)
	}

	order, err := s.store.UpdateOrderStatus(ctx, orderID, newStatus, s.ttl)
	if err != nil {
		return nil, err
	}

	s.invalidateItem(ctx, order.ItemID)
	if s.bus != nil {
		payload := events.OrderEventPayload{
			OrderID:     order.ID,
			Reference:   order.Reference,
			ItemID:      order.ItemID,
			UserID:      order.UserID,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
			ChangedBy:   "admin",
		}
		if err := s.bus.PublishJSON(events.EventOrderStatusChanged, payload); err != nil {
			s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("publish event error")
		}
	}

	s.logger.Info().Int64("order_id", orderID).Str("status", newStatus).Msg("order status updated")
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Open() {
		s.logger.Warn().Int64("order_id", orderID).Str("status", order.Status).Msg("deleting an open order")
	}

	if err := s.store.DeleteOrder(ctx, orderID, s.ttl); err != nil {
		return err
	}

	s.invalidateItem(ctx, order.ItemID)
	s.logger.Info().Int64("order_id", orderID).Int64("item_id", order.ItemID).Msg("order deleted")
	return nil
}

func (s *OrderService) GetRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return s.store.GetRevenueByPeriod(ctx, start, end)
}

func (s *OrderService) invalidateItem(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("cache invalidate error")
	}
}
