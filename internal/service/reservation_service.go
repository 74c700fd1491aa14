package service

import (
	"context"
	"time"

	"akkord/internal/domain"
	"akkord/internal/events"
	"akkord/internal/metrics"
	"akkord/internal/models"

	"github.com/rs/zerolog"
)

// ReservationService владеет переходами available -> booked -> sold.
// Все проверки и мутации выполняет хранилище в одной транзакции; сервис
// добавляет события, метрики и сброс кэша.
type ReservationService struct {
	store  domain.Store
	bus    domain.EventPublisher
	cache  domain.ItemCache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewReservationService(store domain.Store, bus domain.EventPublisher, cache domain.ItemCache, ttl time.Duration, logger *zerolog.Logger) *ReservationService {
	if ttl <= 0 {
		ttl = time.Duration(models.DefaultReservationTTL) * time.Second
	}
	return &ReservationService{
		store:  store,
		bus:    bus,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// TTL возвращает действующий срок брони.
func (s *ReservationService) TTL() time.Duration {
	return s.ttl
}

func (s *ReservationService) Book(ctx context.Context, itemID, userID int64) (*models.Order, error) {
	order, err := s.store.BookItem(ctx, itemID, userID, s.ttl)
	if err != nil {
		metrics.IncReservationOp("book", "failure")
		return nil, err
	}
	metrics.IncReservationOp("book", "success")

	s.invalidateItem(ctx, itemID)
	s.publishEvent(events.EventItemBooked, events.OrderEventPayload{
		OrderID:     order.ID,
		Reference:   order.Reference,
		ItemID:      itemID,
		UserID:      userID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	})

	s.logger.Info().Int64("item_id", itemID).Int64("user_id", userID).Int64("order_id", order.ID).Msg("item booked")
	return order, nil
}

func (s *ReservationService) Purchase(ctx context.Context, itemID, userID int64) (*models.Order, error) {
	order, err := s.store.PurchaseItem(ctx, itemID, userID)
	if err != nil {
		metrics.IncReservationOp("purchase", "failure")
		return nil, err
	}
	metrics.IncReservationOp("purchase", "success")

	s.invalidateItem(ctx, itemID)
	s.publishEvent(events.EventItemSold, events.OrderEventPayload{
		OrderID:     order.ID,
		Reference:   order.Reference,
		ItemID:      itemID,
		UserID:      userID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	})

	s.logger.Info().Int64("item_id", itemID).Int64("user_id", userID).Int64("order_id", order.ID).Msg("item sold")
	return order, nil
}

func (s *ReservationService) CancelBooking(ctx context.Context, itemID int64, actor models.Actor) error {
	if err := s.store.CancelBooking(ctx, itemID, actor); err != nil {
		metrics.IncReservationOp("cancel", "failure")
		return err
	}
	metrics.IncReservationOp("cancel", "success")

	s.invalidateItem(ctx, itemID)
	s.publishEvent(events.EventBookingCancelled, events.OrderEventPayload{
		ItemID:    itemID,
		UserID:    actor.UserID,
		ChangedBy: changedBy(actor),
	})

	s.logger.Info().Int64("item_id", itemID).Int64("actor_id", actor.UserID).Bool("admin", actor.Admin).Msg("booking cancelled")
	return nil
}

func (s *ReservationService) Reconcile(ctx context.Context, itemID int64) error {
	if err := s.store.ReconcileItem(ctx, itemID, s.ttl); err != nil {
		metrics.IncReservationOp("reconcile", "failure")
		return err
	}
	metrics.IncReservationOp("reconcile", "success")
	s.invalidateItem(ctx, itemID)
	return nil
}

func (s *ReservationService) publishEvent(eventType string, payload events.OrderEventPayload) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("item_id", payload.ItemID).Msg("publish event error")
	}
}

func (s *ReservationService) invalidateItem(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("cache invalidate error")
	}
}

func changedBy(actor models.Actor) string {
	if actor.Admin {
		return "admin"
	}
	return "user"
}
