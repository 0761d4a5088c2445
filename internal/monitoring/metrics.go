package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_holds_created_total",
			Help: "Seat holds created, by route",
		},
		[]string{"route"},
	)

	holdsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_holds_rejected_total",
			Help: "Seat hold requests rejected, by reason",
		},
		[]string{"reason"},
	)

	bookingsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_confirmed_total",
			Help: "Bookings confirmed from holds, by payment method",
		},
		[]string{"method"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_payment_reconciliations_total",
			Help: "Payment reconciliations processed, by gateway and outcome",
		},
		[]string{"gateway", "outcome"},
	)

	sweeperReleases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_sweeper_releases_total",
			Help: "Expired records released by the background sweeper, by kind",
		},
		[]string{"kind"},
	)

	bookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_cancelled_total",
			Help: "Bookings cancelled by customers or admins",
		},
	)
)

// TrackHoldCreated records a successful hold
func TrackHoldCreated(route string) {
	holdsCreated.WithLabelValues(route).Inc()
}

// TrackHoldRejected records a rejected hold request
func TrackHoldRejected(reason string) {
	holdsRejected.WithLabelValues(reason).Inc()
}

// TrackBookingConfirmed records a hold converted into a booking
func TrackBookingConfirmed(method string) {
	bookingsConfirmed.WithLabelValues(method).Inc()
}

// TrackReconciliation records a payment reconciliation outcome
func TrackReconciliation(gateway, outcome string) {
	reconciliations.WithLabelValues(gateway, outcome).Inc()
}

// TrackSweeperReleases records how many records one sweep released
func TrackSweeperReleases(kind string, count int64) {
	if count > 0 {
		sweeperReleases.WithLabelValues(kind).Add(float64(count))
	}
}

// TrackBookingCancelled records a booking cancellation
func TrackBookingCancelled() {
	bookingsCancelled.Inc()
}
