package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	ItemID      int64           `json:"item_id"`
	UserID      int64           `json:"user_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"` // pending, confirmed, completed, cancelled
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Open reports whether the order still holds the item (a live booking).
func (o *Order) Open() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// ItemStatusFromOrder maps an order status to the item status it implies.
// Used by reconciliation: the latest order is authoritative.
func ItemStatusFromOrder(orderStatus string) string {
	switch orderStatus {
	case OrderStatusPending, OrderStatusConfirmed:
		return ItemStatusBooked
	case OrderStatusCompleted:
		return ItemStatusSold
	default:
		return ItemStatusAvailable
	}
}
