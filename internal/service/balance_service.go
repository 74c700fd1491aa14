package service

import (
	"context"

	"akkord/internal/database"
	"akkord/internal/domain"
	"akkord/internal/events"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BalanceService управляет внутренним предоплаченным балансом пользователей.
// Дебет в ходе покупки идёт не здесь, а внутри транзакции PurchaseItem.
type BalanceService struct {
	store  domain.Store
	bus    domain.EventPublisher
	logger *zerolog.Logger
}

func NewBalanceService(store domain.Store, bus domain.EventPublisher, logger *zerolog.Logger) *BalanceService {
	return &BalanceService{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

func (s *BalanceService) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, database.ErrInvalidAmount
	}

	balance, err := s.store.CreditBalance(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	if s.bus != nil {
		payload := events.BalanceEventPayload{UserID: userID, Amount: amount, Balance: balance}
		if err := s.bus.PublishJSON(events.EventBalanceCredited, payload); err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("publish event error")
		}
	}

	s.logger.Info().Int64("user_id", userID).Str("amount", amount.String()).Msg("balance credited")
	return balance, nil
}

// Debit возвращает ok=false при нехватке средств, не считая это ошибкой.
func (s *BalanceService) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	ok, err := s.store.DebitBalance(ctx, userID, amount)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Warn().Int64("user_id", userID).Str("amount", amount.String()).Msg("debit rejected: insufficient funds")
		return false, nil
	}

	s.logger.Info().Int64("user_id", userID).Str("amount", amount.String()).Msg("balance debited")
	return true, nil
}

func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.GetBalance(ctx, userID)
}
