package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/pkg/logger"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// denialLogInterval spaces "rate limit exceeded" warnings per profile.
// Every denial is still counted in metrics.
const denialLogInterval = time.Second

// RateLimitResponse is the JSON response for rate limited requests.
type RateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after"`
	Message    string `json:"message"`
}

// RateLimit returns a middleware that counts each request against limiter
// under the given profile. The identifier comes from ClientIdentity when it
// ran, otherwise from the connection address. Limiter errors fail open.
func RateLimit(profile ratelimit.Profile, limiter ratelimit.Limiter, log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("ratelimit").With("profile", string(profile))
	denials := &rate.Sometimes{First: 1, Interval: denialLogInterval}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := ClientIdentifier(r)

			decision, err := limiter.CheckLimit(r.Context(), identifier)
			if err != nil {
				metrics.RecordRateLimitError(string(profile))
				log.Error("rate limit check failed",
					"identifier", identifier,
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordRateLimitDecision(string(profile), decision.Allowed)
			SetRateLimitHeaders(w, decision)

			if !decision.Allowed {
				denials.Do(func() {
					log.Warn("rate limit exceeded",
						"identifier", identifier,
						"retry_after", decision.RetryAfter,
						"request_id", GetRequestID(r.Context()),
					)
				})
				WriteRateLimitResponse(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIdentifier returns the identifier stored by ClientIdentity, or one
// derived from the connection when that middleware did not run.
func ClientIdentifier(r *http.Request) string {
	if id := GetClientIdentity(r.Context()); id != "" {
		return id
	}
	return identify(r)
}

// SetRateLimitHeaders sets the rate limit headers on the response.
func SetRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetTime.Unix(), 10))

	if !d.Allowed {
		w.Header().Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfter))
	}
}

// WriteRateLimitResponse writes the 429 response. Headers set earlier with
// SetRateLimitHeaders are kept.
func WriteRateLimitResponse(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	resp := RateLimitResponse{
		Error:      "rate limit exceeded",
		Code:       "RATE_LIMIT_EXCEEDED",
		RetryAfter: d.RetryAfter,
		Message:    RetryMessage(d.RetryAfter),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// RetryMessage is the user-facing text shown with a denial.
func RetryMessage(seconds int) string {
	return fmt.Sprintf("Too many requests. Please try again in %d seconds.", seconds)
}
