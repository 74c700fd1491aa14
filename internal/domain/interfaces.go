package domain

import (
	"context"
	"time"

	"akkord/internal/models"

	"github.com/shopspring/decimal"
)

// Store покрывает транзакционные операции хранилища (позиции, заказы, балансы).
// Статусные поля позиций меняются только через операции движка брони.
type Store interface {
	BookItem(ctx context.Context, itemID, userID int64, ttl time.Duration) (*models.Order, error)
	PurchaseItem(ctx context.Context, itemID, userID int64) (*models.Order, error)
	CancelBooking(ctx context.Context, itemID int64, actor models.Actor) error
	ReconcileItem(ctx context.Context, itemID int64, ttl time.Duration) error
	ExpireReservations(ctx context.Context, now time.Time) ([]*models.Item, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetAllItems(ctx context.Context) ([]*models.Item, error)
	GetAvailableItems(ctx context.Context) ([]*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	UpdateItemDetails(ctx context.Context, item *models.Item) error

	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	GetActiveOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	GetOrdersByItem(ctx context.Context, itemID int64) ([]*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
	GetRevenueByPeriod(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string, ttl time.Duration) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID int64, ttl time.Duration) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	DebitBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ItemCache кэширует снапшоты позиций для каталожных чтений.
type ItemCache interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	SetItem(ctx context.Context, item *models.Item) error
	GetList(ctx context.Context, key string) ([]*models.Item, error)
	SetList(ctx context.Context, key string, items []*models.Item) error
	InvalidateItem(ctx context.Context, id int64) error
	InvalidateAll(ctx context.Context) error
}

type ReservationService interface {
	Book(ctx context.Context, itemID, userID int64) (*models.Order, error)
	Purchase(ctx context.Context, itemID, userID int64) (*models.Order, error)
	CancelBooking(ctx context.Context, itemID int64, actor models.Actor) error
	Reconcile(ctx context.Context, itemID int64) error
}

type BalanceService interface {
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	GetUserActiveOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	GetItemOrders(ctx context.Context, itemID int64) ([]*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	GetRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

type ItemService interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)
	ListAvailableItems(ctx context.Context) ([]*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
}

type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error)
}
