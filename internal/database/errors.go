package database

import "errors"

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotAvailable операция требует статус available
	ErrNotAvailable = errors.New("item is not available")
	// ErrNotBooked операция требует статус booked
	ErrNotBooked   = errors.New("item is not booked")
	ErrAlreadySold = errors.New("item is already sold")
	// ErrReservedByOther товар забронирован другим пользователем
	ErrReservedByOther = errors.New("item is reserved by another user")
	// ErrSelfDeal владелец не может бронировать или покупать свой товар
	ErrSelfDeal  = errors.New("owner cannot book or purchase own item")
	ErrForbidden = errors.New("operation is not permitted for this actor")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")

	ErrConcurrentModification = errors.New("concurrent modification detected")
)
