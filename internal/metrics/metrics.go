// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rate limit outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks current active connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// RateLimitDecisionsTotal counts limiter decisions by profile and outcome.
	RateLimitDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Total number of rate limit decisions",
		},
		[]string{"profile", "outcome"},
	)

	// RateLimitResetsTotal counts explicit limiter resets.
	RateLimitResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_resets_total",
			Help: "Total number of rate limit resets",
		},
		[]string{"profile"},
	)

	// BookingsCreatedTotal counts stored bookings by package tier.
	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings created",
		},
		[]string{"tier"},
	)

	// BookingStatusChangesTotal counts admin status updates by new status.
	BookingStatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Total number of booking status changes",
		},
		[]string{"status"},
	)

	// PhotoTicketsIssuedTotal counts photo upload tickets.
	PhotoTicketsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_tickets_issued_total",
			Help: "Total number of photo upload tickets issued",
		},
	)

	// DBQueryDuration measures database query latency.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimitDecision records an allowed or denied limiter decision.
func RecordRateLimitDecision(profile string, allowed bool) {
	outcome := OutcomeAllowed
	if !allowed {
		outcome = OutcomeDenied
	}
	RateLimitDecisionsTotal.WithLabelValues(profile, outcome).Inc()
}

// RecordRateLimitError records a limiter that failed to decide.
func RecordRateLimitError(profile string) {
	RateLimitDecisionsTotal.WithLabelValues(profile, OutcomeError).Inc()
}

// RecordRateLimitReset records an explicit reset.
func RecordRateLimitReset(profile string) {
	RateLimitResetsTotal.WithLabelValues(profile).Inc()
}

// RecordBookingCreated records a stored booking.
func RecordBookingCreated(tier string) {
	BookingsCreatedTotal.WithLabelValues(tier).Inc()
}

// RecordStatusChange records a booking status update.
func RecordStatusChange(status string) {
	BookingStatusChangesTotal.WithLabelValues(status).Inc()
}

// RecordPhotoTickets records issued photo upload tickets.
func RecordPhotoTickets(n int) {
	PhotoTicketsIssuedTotal.Add(float64(n))
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
