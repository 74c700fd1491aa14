package models

const (
	ItemStatusAvailable = "available"
	ItemStatusBooked    = "booked"
	ItemStatusSold      = "sold"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	// DefaultReservationTTL срок жизни брони по умолчанию
	DefaultReservationTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultSweepIntervalSeconds период обхода просроченных броней
	DefaultSweepIntervalSeconds = 60

	// DefaultItemCacheTTL время жизни кэша позиций
	DefaultItemCacheTTL = 5 * 60 // 5 минут в секундах

	// RateLimitRPS лимит запросов по умолчанию для API-ключа
	DefaultRateLimitRPS = 10

	// DefaultRateLimitBurst разрешённый всплеск запросов
	DefaultRateLimitBurst = 5
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
