package service

import (
	"context"
	"errors"
	"strings"

	"akkord/internal/domain"
	"akkord/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewUserService(store domain.Store, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return errors.New("email is required")
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user created")
	return nil
}

func (s *UserService) GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.store.GetOrdersByUser(ctx, userID)
}
