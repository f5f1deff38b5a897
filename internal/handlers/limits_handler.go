package handlers

import (
	"net/http"

	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/middleware"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/pkg/logger"
)

// LimitStatusResponse reports a caller's quota under one profile.
type LimitStatusResponse struct {
	Profile    string `json:"profile"`
	Identifier string `json:"identifier"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// LimitsHandler exposes rate limit state.
type LimitsHandler struct {
	limiters *ratelimit.Set
	log      *logger.Logger
}

// NewLimitsHandler creates a new LimitsHandler.
func NewLimitsHandler(limiters *ratelimit.Set, log *logger.Logger) *LimitsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LimitsHandler{limiters: limiters, log: log.Component("limits")}
}

func (h *LimitsHandler) limiter(w http.ResponseWriter, name string) (ratelimit.Profile, ratelimit.Limiter, bool) {
	profile, err := ratelimit.ParseProfile(name)
	if err == nil {
		if l, ok := h.limiters.Get(profile); ok {
			return profile, l, true
		}
		err = ratelimit.ErrUnknownProfile
	}
	writeError(w, err)
	return "", nil, false
}

// Status handles GET /api/v1/limits/{profile}. It does not count a request.
func (h *LimitsHandler) Status(w http.ResponseWriter, r *http.Request) {
	profile, limiter, ok := h.limiter(w, r.PathValue("profile"))
	if !ok {
		return
	}

	identifier := middleware.GetClientIdentity(r.Context())
	remaining, err := limiter.Remaining(r.Context(), identifier)
	if err != nil {
		h.log.Error("remaining quota lookup failed", "profile", string(profile), "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LimitStatusResponse{
		Profile:    string(profile),
		Identifier: identifier,
		Limit:      limiter.Limit(),
		Remaining:  remaining,
	})
}

// Reset handles DELETE /api/v1/limits/{profile}/{identifier}.
func (h *LimitsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	profile, limiter, ok := h.limiter(w, r.PathValue("profile"))
	if !ok {
		return
	}

	identifier := r.PathValue("identifier")
	if err := limiter.Reset(r.Context(), identifier); err != nil {
		h.log.Error("rate limit reset failed", "profile", string(profile), "error", err)
		writeError(w, err)
		return
	}

	metrics.RecordRateLimitReset(string(profile))
	h.log.Info("rate limit reset", "profile", string(profile), "identifier", identifier)
	w.WriteHeader(http.StatusNoContent)
}
