package service

import (
	"context"
	"testing"

	"akkord/internal/database"
	"akkord/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	store := new(mockStore)
	svc := NewUserService(store, testLogger())

	user := &models.User{Email: "alice@test", Name: "Alice"}
	store.On("CreateUser", mock.Anything, user).Return(nil)

	require.NoError(t, svc.CreateUser(context.Background(), user))
	store.AssertExpectations(t)
}

func TestUserService_CreateUser_EmptyEmail(t *testing.T) {
	store := new(mockStore)
	svc := NewUserService(store, testLogger())

	err := svc.CreateUser(context.Background(), &models.User{Name: "No Email"})
	assert.Error(t, err)
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)

	err = svc.CreateUser(context.Background(), &models.User{Email: "   "})
	assert.Error(t, err)
}

func TestUserService_GetUser(t *testing.T) {
	store := new(mockStore)
	svc := NewUserService(store, testLogger())

	user := &models.User{ID: 1, Email: "alice@test"}
	store.On("GetUserByID", mock.Anything, int64(1)).Return(user, nil)
	store.On("GetUserByEmail", mock.Anything, "alice@test").Return(user, nil)
	store.On("GetUserByID", mock.Anything, int64(9)).Return(nil, database.ErrUserNotFound)

	got, err := svc.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	byEmail, err := svc.GetUserByEmail(context.Background(), "alice@test")
	require.NoError(t, err)
	assert.Equal(t, user, byEmail)

	_, err = svc.GetUser(context.Background(), 9)
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}
