package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseWriter(t *testing.T) {
	t.Run("defaults to 200 OK", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		assert.Equal(t, http.StatusOK, rw.statusCode)
	})

	t.Run("captures written status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.WriteHeader(http.StatusNotFound)

		assert.Equal(t, http.StatusNotFound, rw.statusCode)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMetrics(t *testing.T) {
	t.Run("wraps handler and records metrics", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		middleware := Metrics()
		wrapped := middleware(handler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("records correct status code for errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		middleware := Metrics()
		wrapped := middleware(handler)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"health endpoint", "/health", "/health"},
		{"ready endpoint", "/ready", "/ready"},
		{"metrics endpoint", "/metrics", "/metrics"},
		{"booking collection", "/api/v1/bookings", "/api/v1/bookings"},
		{"booking by id", "/api/v1/bookings/booking_123", "/api/v1/bookings/{id}"},
		{"booking status", "/api/v1/bookings/booking_123/status", "/api/v1/bookings/{id}/status"},
		{"contact form", "/api/v1/forms/contact", "/api/v1/forms/contact"},
		{"photo authorize", "/api/v1/photos/authorize", "/api/v1/photos/authorize"},
		{"availability", "/api/v1/availability/2026-11-02", "/api/v1/availability/{date}"},
		{"catalog", "/api/v1/catalog", "/api/v1/catalog"},
		{"limit status", "/api/v1/limits/booking", "/api/v1/limits/{profile}"},
		{"limit reset", "/api/v1/limits/form/ip:10.0.0.1", "/api/v1/limits/{profile}/{identifier}"},
		{"unknown api path", "/api/v1/unknown/a/b/c", "/other"},
		{"unknown path", "/some/random/path", "/other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizePath(tt.path)
			assert.Equal(t, tt.expected, result)
		})
	}
}
