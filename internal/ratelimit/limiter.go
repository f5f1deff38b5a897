// Package ratelimit provides fixed-window rate limiting.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultKeyPrefix namespaces store keys when no KeyGenerator is configured.
const DefaultKeyPrefix = "rate_limit:"

// ErrInvalidConfig is returned when a limiter is constructed with a
// non-positive request budget or window.
var ErrInvalidConfig = errors.New("invalid rate limit config")

// KeyFunc maps a caller identifier to a store key.
type KeyFunc func(identifier string) string

// PrefixKey returns a KeyFunc that prepends prefix to the identifier.
func PrefixKey(prefix string) KeyFunc {
	return func(identifier string) string {
		return prefix + identifier
	}
}

// Config holds rate limiter configuration.
type Config struct {
	MaxRequests  int           // Maximum requests per window
	Window       time.Duration // Window length
	KeyGenerator KeyFunc       // Optional; defaults to DefaultKeyPrefix + identifier
}

// Validate reports whether the configuration can drive a limiter.
func (c Config) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	return nil
}

// key derives the store key for an identifier.
func (c Config) key(identifier string) string {
	if c.KeyGenerator != nil {
		return c.KeyGenerator(identifier)
	}
	return DefaultKeyPrefix + identifier
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool      // Whether the request is allowed
	Remaining  int       // Requests left in the current window
	ResetTime  time.Time // End of the current window
	RetryAfter int       // Whole seconds to wait; set only when denied
	Limit      int       // The configured maximum
}

// ResetTimeMillis returns ResetTime as milliseconds since the Unix epoch.
func (d *Decision) ResetTimeMillis() int64 {
	return d.ResetTime.UnixMilli()
}

// Limiter defines the rate limiting interface.
type Limiter interface {
	// CheckLimit counts a request for identifier and reports whether it is allowed.
	CheckLimit(ctx context.Context, identifier string) (*Decision, error)

	// RecordRequest counts a request without returning the decision.
	RecordRequest(ctx context.Context, identifier string) error

	// Remaining returns the requests left for identifier without counting one.
	Remaining(ctx context.Context, identifier string) (int, error)

	// Reset clears the rate limit state for an identifier.
	Reset(ctx context.Context, identifier string) error

	// Limit returns the configured maximum requests per window.
	Limit() int

	// Close releases any resources held by the limiter.
	Close() error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// options collects the optional limiter settings.
type options struct {
	clock           Clock
	cleanupInterval time.Duration
}

// Option configures a limiter.
type Option func(*options)

// WithClock sets the time source used for window arithmetic.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCleanupInterval starts a background sweep of expired entries at the
// given interval. Zero disables it. Redis limiters ignore it.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// retryAfterSeconds rounds the time left in a window up to whole seconds.
func retryAfterSeconds(resetTime, now time.Time) int {
	left := resetTime.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
