package middleware

import (
	"net/http"
	"time"

	"github.com/topclass/bookingguard/pkg/logger"
)

// Logging returns a middleware that logs each request at debug level.
func Logging(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")

	return func(next http.Handler) http.Handler {
		if !log.Enabled(logger.LevelDebug) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", GetRequestID(r.Context()),
				"client", GetClientIdentity(r.Context()),
			)
		})
	}
}
