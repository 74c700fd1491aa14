package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID                int64           `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description" yaml:"description"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
	OwnerID           int64           `json:"owner_id" yaml:"owner_id"`
	Status            string          `json:"status"` // available, booked, sold
	ReservedBy        *int64          `json:"reserved_by,omitempty"`
	ReservationExpiry *time.Time      `json:"reservation_expiry,omitempty"`
	BuyerID           *int64          `json:"buyer_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int64           `json:"version"`
}

// Actor identifies who is performing an operation. Admin comes from the
// caller's credentials, not from the user record.
type Actor struct {
	UserID int64
	Admin  bool
}

// CanCancelBooking reports whether the actor may release the item's booking:
// the reserving user, the item owner, or an admin.
func CanCancelBooking(actor Actor, item *Item) bool {
	if actor.Admin {
		return true
	}
	if actor.UserID == item.OwnerID {
		return true
	}
	return item.ReservedBy != nil && *item.ReservedBy == actor.UserID
}

// CheckInvariants validates the status/field coupling: reserved_by and
// reservation_expiry are set iff booked, buyer_id is set iff sold.
func (i *Item) CheckInvariants() bool {
	switch i.Status {
	case ItemStatusAvailable:
		return i.ReservedBy == nil && i.ReservationExpiry == nil && i.BuyerID == nil
	case ItemStatusBooked:
		return i.ReservedBy != nil && i.ReservationExpiry != nil && i.BuyerID == nil
	case ItemStatusSold:
		return i.ReservedBy == nil && i.ReservationExpiry == nil && i.BuyerID != nil
	default:
		return false
	}
}
