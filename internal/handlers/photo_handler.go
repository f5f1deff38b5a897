package handlers

import (
	"net/http"

	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/middleware"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/internal/services"
	"github.com/topclass/bookingguard/pkg/logger"
)

// AuthorizePhotosRequest lists the photos a client wants to upload.
type AuthorizePhotosRequest struct {
	Photos []services.PhotoMeta `json:"photos"`
}

// AuthorizePhotosResponse carries one ticket per photo.
type AuthorizePhotosResponse struct {
	Tickets []services.PhotoTicket `json:"tickets"`
}

// PhotoHandler handles photo upload authorization. Every photo counts as
// one request against the photos limiter.
type PhotoHandler struct {
	service *services.PhotoService
	limiter ratelimit.Limiter
	log     *logger.Logger
}

// NewPhotoHandler creates a new PhotoHandler. A nil limiter disables
// upload limiting.
func NewPhotoHandler(svc *services.PhotoService, limiter ratelimit.Limiter, log *logger.Logger) *PhotoHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PhotoHandler{
		service: svc,
		limiter: limiter,
		log:     log.Component("photos"),
	}
}

// Authorize handles POST /api/v1/photos/authorize.
func (h *PhotoHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizePhotosRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.Validate(req.Photos); err != nil {
		writeError(w, err)
		return
	}
	if !h.charge(w, r, len(req.Photos)) {
		return
	}

	tickets, err := h.service.Authorize(req.Photos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthorizePhotosResponse{Tickets: tickets})
}

// charge counts n uploads for the caller and stops at the first refusal,
// writing the 429. Limiter errors fail open.
func (h *PhotoHandler) charge(w http.ResponseWriter, r *http.Request, n int) bool {
	if h.limiter == nil {
		return true
	}
	profile := string(ratelimit.ProfilePhotos)
	identifier := middleware.ClientIdentifier(r)

	var decision *ratelimit.Decision
	for i := 0; i < n; i++ {
		d, err := h.limiter.CheckLimit(r.Context(), identifier)
		if err != nil {
			metrics.RecordRateLimitError(profile)
			h.log.Error("photo rate limit check failed",
				"identifier", identifier,
				"request_id", middleware.GetRequestID(r.Context()),
				"error", err,
			)
			return true
		}
		decision = d
		if !d.Allowed {
			metrics.RecordRateLimitDecision(profile, false)
			h.log.Warn("photo upload limit exceeded",
				"identifier", identifier,
				"photos", n,
				"charged", i,
				"retry_after", d.RetryAfter,
			)
			middleware.SetRateLimitHeaders(w, d)
			middleware.WriteRateLimitResponse(w, d)
			return false
		}
	}

	metrics.RecordRateLimitDecision(profile, true)
	middleware.SetRateLimitHeaders(w, decision)
	return true
}
