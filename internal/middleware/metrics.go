package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/topclass/bookingguard/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			path := normalizePath(r.URL.Path)
			metrics.RecordRequest(r.Method, path, rw.statusCode, duration)
		})
	}
}

// normalizePath normalizes the URL path for metrics labels.
// This prevents high cardinality from dynamic path segments.
func normalizePath(path string) string {
	switch path {
	case "/health", "/ready", "/metrics",
		"/api/v1/bookings", "/api/v1/catalog",
		"/api/v1/forms/contact", "/api/v1/forms/property",
		"/api/v1/photos/authorize":
		return path
	}

	rest, ok := strings.CutPrefix(path, "/api/v1/")
	if !ok {
		return "/other"
	}
	segs := strings.Split(rest, "/")

	switch {
	case segs[0] == "bookings" && len(segs) == 2:
		return "/api/v1/bookings/{id}"
	case segs[0] == "bookings" && len(segs) == 3 && segs[2] == "status":
		return "/api/v1/bookings/{id}/status"
	case segs[0] == "availability" && len(segs) == 2:
		return "/api/v1/availability/{date}"
	case segs[0] == "limits" && len(segs) == 2:
		return "/api/v1/limits/{profile}"
	case segs[0] == "limits" && len(segs) == 3:
		return "/api/v1/limits/{profile}/{identifier}"
	default:
		return "/other"
	}
}
