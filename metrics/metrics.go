package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HoldsGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_granted_total",
			Help: "Number of slot holds granted",
		},
	)

	HoldsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_rejected_total",
			Help: "Number of hold attempts that lost the race or found the slot full",
		},
	)

	ReservationsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reservations_confirmed_total",
			Help: "Number of reservations reaching confirmed",
		},
	)

	ReservationsReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reservations_released_total",
			Help: "Number of reservations released after payment failure or cancel",
		},
	)

	ReservationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reservations_expired_total",
			Help: "Number of reservations expired by the hold sweep",
		},
	)

	PaymentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_payment_failures_total",
			Help: "Number of failed capture attempts",
		},
	)

	RefundsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_refunds_issued_total",
			Help: "Number of compensating refunds for late confirmations",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		HoldsGranted,
		HoldsRejected,
		ReservationsConfirmed,
		ReservationsReleased,
		ReservationsExpired,
		PaymentFailures,
		RefundsIssued,
	)
}

// Serve exposes /metrics on its own listener, away from the API port.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics listener stopped: %v", err)
		}
	}()
}
