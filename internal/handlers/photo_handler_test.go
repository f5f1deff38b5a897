package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topclass/bookingguard/internal/middleware"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/internal/services"
)

func photosBody(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"name":"room-%d.jpg","content_type":"image/jpeg","size":204800}`, i)
	}
	return `{"photos":[` + strings.Join(items, ",") + `]}`
}

func authorizePhotos(h *PhotoHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos/authorize", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)
	return rec
}

func newPhotoLimiter(t *testing.T) ratelimit.Limiter {
	t.Helper()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	limiter, err := ratelimit.NewMemoryLimiter(ratelimit.PhotoUploadConfig(),
		ratelimit.WithClock(ratelimit.ClockFunc(func() time.Time { return now })))
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter
}

func TestPhotoHandler_Authorize(t *testing.T) {
	h := NewPhotoHandler(services.NewPhotoService(0), nil, nil)

	t.Run("issues one ticket per photo", func(t *testing.T) {
		body := `{"photos":[
			{"name":"kitchen.jpg","content_type":"image/jpeg","size":204800},
			{"name":"bath.png","content_type":"image/png","size":1024}]}`

		rec := authorizePhotos(h, body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got AuthorizePhotosResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Tickets, 2)
		assert.NotEqual(t, got.Tickets[0].Ticket, got.Tickets[1].Ticket)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		rec := authorizePhotos(h, `{"photos":[{"name":"plan.pdf","content_type":"application/pdf","size":1024}]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "UNSUPPORTED_PHOTO_TYPE", decodeError(t, rec).Code)
	})

	t.Run("rejects empty request", func(t *testing.T) {
		rec := authorizePhotos(h, `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "NO_PHOTOS", decodeError(t, rec).Code)
	})
}

func TestPhotoHandler_ChargesEachPhoto(t *testing.T) {
	limiter := newPhotoLimiter(t)
	h := NewPhotoHandler(services.NewPhotoService(0), limiter, nil)
	ctx := context.Background()

	first := authorizePhotos(h, photosBody(services.MaxPhotosPerRequest))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "20", first.Header().Get(middleware.HeaderRateLimitLimit))
	assert.Equal(t, "10", first.Header().Get(middleware.HeaderRateLimitRemaining))

	second := authorizePhotos(h, photosBody(services.MaxPhotosPerRequest))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "0", second.Header().Get(middleware.HeaderRateLimitRemaining))

	third := authorizePhotos(h, photosBody(1))
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "3600", third.Header().Get(middleware.HeaderRetryAfter))

	var resp middleware.RateLimitResponse
	require.NoError(t, json.NewDecoder(third.Body).Decode(&resp))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Code)

	remaining, err := limiter.Remaining(ctx, "ip:203.0.113.7")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestPhotoHandler_RefusesBatchOverBudget(t *testing.T) {
	limiter := newPhotoLimiter(t)
	h := NewPhotoHandler(services.NewPhotoService(0), limiter, nil)

	require.Equal(t, http.StatusCreated, authorizePhotos(h, photosBody(8)).Code)
	require.Equal(t, http.StatusCreated, authorizePhotos(h, photosBody(8)).Code)

	// Four photos remain; a batch of ten is refused and issues nothing.
	rec := authorizePhotos(h, photosBody(services.MaxPhotosPerRequest))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tickets")
}

func TestPhotoHandler_InvalidBatchIsNotCharged(t *testing.T) {
	limiter := newPhotoLimiter(t)
	h := NewPhotoHandler(services.NewPhotoService(0), limiter, nil)

	rec := authorizePhotos(h, photosBody(services.MaxPhotosPerRequest+1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TOO_MANY_PHOTOS", decodeError(t, rec).Code)

	remaining, err := limiter.Remaining(context.Background(), "ip:203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)
}

type failingLimiter struct {
	ratelimit.Limiter
}

func (failingLimiter) CheckLimit(context.Context, string) (*ratelimit.Decision, error) {
	return nil, errors.New("redis: connection refused")
}

func TestPhotoHandler_FailsOpen(t *testing.T) {
	h := NewPhotoHandler(services.NewPhotoService(0), failingLimiter{}, nil)

	rec := authorizePhotos(h, photosBody(3))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get(middleware.HeaderRateLimitLimit))
}
