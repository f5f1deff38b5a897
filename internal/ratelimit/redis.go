package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts a request against KEYS[1] atomically.
// ARGV[1] is the max requests, ARGV[2] the window in milliseconds.
// Returns {allowed, count, ms_until_reset}.
//
// Keys live one millisecond past the window so the reset instant itself
// still belongs to the window, as it does for MemoryLimiter.
var fixedWindowScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local ttl = redis.call('PTTL', KEYS[1])
if count == 0 or ttl < 0 then
	redis.call('SET', KEYS[1], 1, 'PX', window + 1)
	return {1, 1, window}
end
local left = math.max(ttl - 1, 0)
if count >= max then
	return {0, count, left}
end
count = redis.call('INCR', KEYS[1])
return {1, count, left}
`)

// RedisLimiter implements a fixed window rate limiter shared through Redis.
// Expiry is handled by key TTLs, so there is no sweep.
type RedisLimiter struct {
	client *redis.Client
	config Config
	clock  Clock
}

// NewRedisLimiter creates a Redis-backed rate limiter. The client is owned by
// the caller and is not closed by Close.
func NewRedisLimiter(client *redis.Client, cfg Config, opts ...Option) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	return &RedisLimiter{
		client: client,
		config: cfg,
		clock:  o.clock,
	}, nil
}

// CheckLimit counts a request for identifier.
func (r *RedisLimiter) CheckLimit(ctx context.Context, identifier string) (*Decision, error) {
	key := r.config.key(identifier)
	now := r.clock.Now()

	res, err := fixedWindowScript.Run(ctx, r.client, []string{key},
		r.config.MaxRequests, r.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit check failed: unexpected reply %v", res)
	}

	allowed, count, ttl := res[0] == 1, int(res[1]), time.Duration(res[2])*time.Millisecond
	resetTime := now.Add(ttl)

	if !allowed {
		return &Decision{
			Allowed:    false,
			Remaining:  0,
			ResetTime:  resetTime,
			RetryAfter: retryAfterSeconds(resetTime, now),
			Limit:      r.config.MaxRequests,
		}, nil
	}

	return &Decision{
		Allowed:   true,
		Remaining: max(0, r.config.MaxRequests-count),
		ResetTime: resetTime,
		Limit:     r.config.MaxRequests,
	}, nil
}

// RecordRequest counts a request and discards the decision.
func (r *RedisLimiter) RecordRequest(ctx context.Context, identifier string) error {
	_, err := r.CheckLimit(ctx, identifier)
	return err
}

// Remaining returns the requests left for identifier without counting one.
func (r *RedisLimiter) Remaining(ctx context.Context, identifier string) (int, error) {
	count, err := r.client.Get(ctx, r.config.key(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return r.config.MaxRequests, nil
		}
		return 0, fmt.Errorf("rate limit lookup failed: %w", err)
	}
	return max(0, r.config.MaxRequests-count), nil
}

// Reset clears the rate limit state for an identifier.
func (r *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, r.config.key(identifier)).Err(); err != nil {
		return fmt.Errorf("rate limit reset failed: %w", err)
	}
	return nil
}

// Limit returns the configured maximum requests per window.
func (r *RedisLimiter) Limit() int {
	return r.config.MaxRequests
}

// Close is a no-op; the client belongs to the caller.
func (r *RedisLimiter) Close() error {
	return nil
}
