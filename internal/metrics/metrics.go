package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akkord",
			Name:      "reservation_ops_total",
			Help:      "Reservation engine operations by type and outcome.",
		},
		[]string{"op", "outcome"},
	)

	expiredReservations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "akkord",
			Name:      "expired_reservations_total",
			Help:      "Reservations released by the expiry sweeper.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akkord",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationOps, expiredReservations, httpRequests)
	})
}

// IncReservationOp counts one engine operation with its outcome label.
func IncReservationOp(op, outcome string) {
	reservationOps.WithLabelValues(op, outcome).Inc()
}

// AddExpired counts reservations released by a sweep.
func AddExpired(n int) {
	expiredReservations.Add(float64(n))
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
