package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements an in-memory fixed window rate limiter.
type MemoryLimiter struct {
	config  Config
	clock   Clock
	mu      sync.Mutex
	entries map[string]*entry

	// For the optional background sweep
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// entry is the counter for one key in the current window.
type entry struct {
	count     int
	resetTime time.Time
}

// expired reports whether the window ended before now.
func (e *entry) expired(now time.Time) bool {
	return now.After(e.resetTime)
}

// NewMemoryLimiter creates a new in-memory rate limiter.
func NewMemoryLimiter(cfg Config, opts ...Option) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	m := &MemoryLimiter{
		config:  cfg,
		clock:   o.clock,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(o.cleanupInterval)
	}

	return m, nil
}

// CheckLimit counts a request for identifier. It never returns an error.
func (m *MemoryLimiter) CheckLimit(_ context.Context, identifier string) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweepLocked(now)

	key := m.config.key(identifier)
	e, ok := m.entries[key]

	// First request or window expired
	if !ok || e.expired(now) {
		resetTime := now.Add(m.config.Window)
		m.entries[key] = &entry{count: 1, resetTime: resetTime}
		return &Decision{
			Allowed:   true,
			Remaining: m.config.MaxRequests - 1,
			ResetTime: resetTime,
			Limit:     m.config.MaxRequests,
		}, nil
	}

	if e.count >= m.config.MaxRequests {
		return &Decision{
			Allowed:    false,
			Remaining:  0,
			ResetTime:  e.resetTime,
			RetryAfter: retryAfterSeconds(e.resetTime, now),
			Limit:      m.config.MaxRequests,
		}, nil
	}

	e.count++
	return &Decision{
		Allowed:   true,
		Remaining: m.config.MaxRequests - e.count,
		ResetTime: e.resetTime,
		Limit:     m.config.MaxRequests,
	}, nil
}

// RecordRequest counts a request and discards the decision.
func (m *MemoryLimiter) RecordRequest(ctx context.Context, identifier string) error {
	_, err := m.CheckLimit(ctx, identifier)
	return err
}

// Remaining returns the requests left for identifier. It does not sweep.
func (m *MemoryLimiter) Remaining(_ context.Context, identifier string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[m.config.key(identifier)]
	if !ok || e.expired(m.clock.Now()) {
		return m.config.MaxRequests, nil
	}
	return max(0, m.config.MaxRequests-e.count), nil
}

// Reset clears the rate limit state for an identifier.
func (m *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	m.mu.Lock()
	delete(m.entries, m.config.key(identifier))
	m.mu.Unlock()
	return nil
}

// Limit returns the configured maximum requests per window.
func (m *MemoryLimiter) Limit() int {
	return m.config.MaxRequests
}

// Len returns the number of stored keys, live or not yet swept.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the background sweep, if any. It is safe to call twice.
func (m *MemoryLimiter) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
	return nil
}

// Cleanup removes expired entries.
func (m *MemoryLimiter) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.clock.Now())
}

// sweepLocked deletes every entry whose window ended before now.
// The caller must hold m.mu.
func (m *MemoryLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// cleanupLoop periodically removes expired entries.
func (m *MemoryLimiter) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
