package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg Config, clock Clock) *MemoryLimiter {
	t.Helper()
	limiter, err := NewMemoryLimiter(cfg, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { limiter.Close() })
	return limiter
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{MaxRequests: 1, Window: time.Millisecond}, false},
		{"zero requests", Config{MaxRequests: 0, Window: time.Second}, true},
		{"negative requests", Config{MaxRequests: -3, Window: time.Second}, true},
		{"zero window", Config{MaxRequests: 5, Window: 0}, true},
		{"negative window", Config{MaxRequests: 5, Window: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewMemoryLimiter_RejectsInvalidConfig(t *testing.T) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 0, Window: time.Minute})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, limiter)
}

func TestMemoryLimiter_CheckLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("window walkthrough", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.Now()
		limiter := newTestLimiter(t, Config{MaxRequests: 2, Window: time.Second}, clock)

		d, err := limiter.CheckLimit(ctx, "x")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Remaining)
		assert.Equal(t, start.Add(time.Second), d.ResetTime)

		clock.Advance(10 * time.Millisecond)
		d, err = limiter.CheckLimit(ctx, "x")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, start.Add(time.Second), d.ResetTime, "reset time is fixed for the window")

		clock.Advance(10 * time.Millisecond)
		d, err = limiter.CheckLimit(ctx, "x")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, 1, d.RetryAfter, "980ms left rounds up to 1s")

		clock.Advance(981 * time.Millisecond)
		d, err = limiter.CheckLimit(ctx, "x")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "a new window starts after the reset time")
		assert.Equal(t, 1, d.Remaining)
		assert.Equal(t, start.Add(1001*time.Millisecond+time.Second), d.ResetTime)
	})

	t.Run("allows exactly max requests", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 5, Window: time.Minute}, newFakeClock())

		for i := 0; i < 5; i++ {
			d, err := limiter.CheckLimit(ctx, "192.168.1.1")
			require.NoError(t, err)
			assert.True(t, d.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 5-i-1, d.Remaining)
			assert.Equal(t, 5, d.Limit)
			assert.Zero(t, d.RetryAfter)
		}

		for i := 0; i < 3; i++ {
			d, err := limiter.CheckLimit(ctx, "192.168.1.1")
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, 0, d.Remaining)
			assert.Equal(t, 60, d.RetryAfter)
		}
	})

	t.Run("denial does not extend the window", func(t *testing.T) {
		clock := newFakeClock()
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: 10 * time.Second}, clock)

		first, err := limiter.CheckLimit(ctx, "id")
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			clock.Advance(2 * time.Second)
			d, err := limiter.CheckLimit(ctx, "id")
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, first.ResetTime, d.ResetTime)
			assert.Equal(t, 10-2*(i+1), d.RetryAfter)
		}
	})

	t.Run("entry is live at exactly the reset time", func(t *testing.T) {
		clock := newFakeClock()
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Second}, clock)

		_, err := limiter.CheckLimit(ctx, "edge")
		require.NoError(t, err)

		clock.Advance(time.Second)
		d, err := limiter.CheckLimit(ctx, "edge")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.RetryAfter, "no time left is reported as zero, never negative")

		clock.Advance(time.Millisecond)
		d, err = limiter.CheckLimit(ctx, "edge")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("different identifiers have separate limits", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute}, newFakeClock())

		d, err := limiter.CheckLimit(ctx, "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = limiter.CheckLimit(ctx, "a")
		require.NoError(t, err)
		assert.False(t, d.Allowed)

		remaining, err := limiter.Remaining(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, 1, remaining)

		d, err = limiter.CheckLimit(ctx, "b")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("empty identifier is a valid key", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute}, newFakeClock())

		d, err := limiter.CheckLimit(ctx, "")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = limiter.CheckLimit(ctx, "")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})

	t.Run("ignores cancelled context", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute}, newFakeClock())

		cctx, cancel := context.WithCancel(context.Background())
		cancel()

		d, err := limiter.CheckLimit(cctx, "test")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestMemoryLimiter_Instances(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cfg := Config{MaxRequests: 1, Window: time.Minute}

	first := newTestLimiter(t, cfg, clock)
	second := newTestLimiter(t, cfg, clock)

	d, err := first.CheckLimit(ctx, "same")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = second.CheckLimit(ctx, "same")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "instances never share counters")
}

func TestMemoryLimiter_KeyGenerator(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("default key prefix", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 3, Window: time.Minute}, clock)
		_, err := limiter.CheckLimit(ctx, "user")
		require.NoError(t, err)

		limiter.mu.Lock()
		_, ok := limiter.entries["rate_limit:user"]
		limiter.mu.Unlock()
		assert.True(t, ok)
	})

	t.Run("custom generator", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{
			MaxRequests:  3,
			Window:       time.Minute,
			KeyGenerator: PrefixKey("booking:"),
		}, clock)
		_, err := limiter.CheckLimit(ctx, "user")
		require.NoError(t, err)

		limiter.mu.Lock()
		_, ok := limiter.entries["booking:user"]
		limiter.mu.Unlock()
		assert.True(t, ok)
	})

	t.Run("colliding keys share a counter", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{
			MaxRequests:  1,
			Window:       time.Minute,
			KeyGenerator: func(string) string { return "everyone" },
		}, clock)

		d, err := limiter.CheckLimit(ctx, "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = limiter.CheckLimit(ctx, "b")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})
}

func TestMemoryLimiter_RecordRequest(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cfg := Config{MaxRequests: 3, Window: time.Minute}

	recorded := newTestLimiter(t, cfg, clock)
	checked := newTestLimiter(t, cfg, clock)

	for i := 0; i < 2; i++ {
		require.NoError(t, recorded.RecordRequest(ctx, "id"))
		_, err := checked.CheckLimit(ctx, "id")
		require.NoError(t, err)
	}

	recorded.mu.Lock()
	checked.mu.Lock()
	assert.Equal(t, *checked.entries["rate_limit:id"], *recorded.entries["rate_limit:id"])
	checked.mu.Unlock()
	recorded.mu.Unlock()

	remaining, err := recorded.Remaining(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestMemoryLimiter_Remaining(t *testing.T) {
	ctx := context.Background()

	t.Run("full quota when unseen", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 4, Window: time.Minute}, newFakeClock())
		remaining, err := limiter.Remaining(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
		assert.Equal(t, 0, limiter.Len(), "remaining must not create entries")
	})

	t.Run("does not change later decisions", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 2, Window: time.Minute}, newFakeClock())

		_, err := limiter.CheckLimit(ctx, "id")
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			remaining, err := limiter.Remaining(ctx, "id")
			require.NoError(t, err)
			assert.Equal(t, 1, remaining)
		}

		d, err := limiter.CheckLimit(ctx, "id")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
	})

	t.Run("full quota once window expired", func(t *testing.T) {
		clock := newFakeClock()
		limiter := newTestLimiter(t, Config{MaxRequests: 2, Window: time.Second}, clock)

		_, err := limiter.CheckLimit(ctx, "id")
		require.NoError(t, err)
		clock.Advance(2 * time.Second)

		remaining, err := limiter.Remaining(ctx, "id")
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
		assert.Equal(t, 1, limiter.Len(), "remaining must not sweep")
	})

	t.Run("never negative", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute}, newFakeClock())
		for i := 0; i < 3; i++ {
			_, err := limiter.CheckLimit(ctx, "id")
			require.NoError(t, err)
		}
		remaining, err := limiter.Remaining(ctx, "id")
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})
}

func TestMemoryLimiter_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("resets limit for identifier", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 3, Window: time.Minute}, newFakeClock())

		for i := 0; i < 4; i++ {
			_, err := limiter.CheckLimit(ctx, "id")
			require.NoError(t, err)
		}

		require.NoError(t, limiter.Reset(ctx, "id"))

		d, err := limiter.CheckLimit(ctx, "id")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "should be allowed after reset")
		assert.Equal(t, 2, d.Remaining)
	})

	t.Run("is idempotent", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 3, Window: time.Minute}, newFakeClock())
		assert.NoError(t, limiter.Reset(ctx, "missing"))
		assert.NoError(t, limiter.Reset(ctx, "missing"))
		assert.Equal(t, 0, limiter.Len())
	})
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("check sweeps expired entries", func(t *testing.T) {
		clock := newFakeClock()
		limiter := newTestLimiter(t, Config{MaxRequests: 5, Window: time.Second}, clock)

		for _, id := range []string{"a", "b", "c"} {
			_, err := limiter.CheckLimit(ctx, id)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, limiter.Len())

		clock.Advance(2 * time.Second)
		_, err := limiter.CheckLimit(ctx, "d")
		require.NoError(t, err)
		assert.Equal(t, 1, limiter.Len())
	})

	t.Run("cleanup returns removed count", func(t *testing.T) {
		clock := newFakeClock()
		limiter := newTestLimiter(t, Config{MaxRequests: 5, Window: time.Second}, clock)

		_, err := limiter.CheckLimit(ctx, "a")
		require.NoError(t, err)
		clock.Advance(500 * time.Millisecond)
		_, err = limiter.CheckLimit(ctx, "b")
		require.NoError(t, err)

		clock.Advance(600 * time.Millisecond)
		assert.Equal(t, 1, limiter.Cleanup())
		assert.Equal(t, 1, limiter.Len())
	})

	t.Run("background sweep", func(t *testing.T) {
		clock := newFakeClock()
		limiter, err := NewMemoryLimiter(Config{MaxRequests: 5, Window: time.Second},
			WithClock(clock), WithCleanupInterval(5*time.Millisecond))
		require.NoError(t, err)
		defer limiter.Close()

		_, err = limiter.CheckLimit(ctx, "a")
		require.NoError(t, err)
		clock.Advance(2 * time.Second)

		assert.Eventually(t, func() bool { return limiter.Len() == 0 },
			time.Second, 5*time.Millisecond)
	})

	t.Run("close is safe to repeat", func(t *testing.T) {
		limiter, err := NewMemoryLimiter(Config{MaxRequests: 1, Window: time.Second},
			WithCleanupInterval(time.Millisecond))
		require.NoError(t, err)
		assert.NoError(t, limiter.Close())
		assert.NoError(t, limiter.Close())
	})
}

func TestMemoryLimiter_Concurrency(t *testing.T) {
	t.Run("handles concurrent requests safely", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 100, Window: time.Minute}, SystemClock)
		ctx := context.Background()

		var wg sync.WaitGroup
		var allowed int64

		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := limiter.CheckLimit(ctx, "192.168.1.1")
				if err == nil && d.Allowed {
					atomic.AddInt64(&allowed, 1)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, int64(100), allowed, "exactly limit requests should be allowed")
	})

	t.Run("handles concurrent requests for different identifiers", func(t *testing.T) {
		limiter := newTestLimiter(t, Config{MaxRequests: 10, Window: time.Minute}, SystemClock)
		ctx := context.Background()

		var wg sync.WaitGroup
		var totalAllowed int64

		for id := 0; id < 10; id++ {
			identifier := string(rune('A' + id))
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					d, err := limiter.CheckLimit(ctx, id)
					if err == nil && d.Allowed {
						atomic.AddInt64(&totalAllowed, 1)
					}
				}(identifier)
			}
		}

		wg.Wait()

		assert.Equal(t, int64(100), totalAllowed)
	})
}

func TestRetryAfterSeconds(t *testing.T) {
	base := time.Unix(0, 0)
	tests := []struct {
		left time.Duration
		want int
	}{
		{-time.Second, 0},
		{0, 0},
		{time.Millisecond, 1},
		{980 * time.Millisecond, 1},
		{time.Second, 1},
		{1001 * time.Millisecond, 2},
		{15 * time.Minute, 900},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(base.Add(tt.left), base), "left=%s", tt.left)
	}
}

func TestDecision_ResetTimeMillis(t *testing.T) {
	d := &Decision{ResetTime: time.UnixMilli(1_700_000_001_234)}
	assert.Equal(t, int64(1_700_000_001_234), d.ResetTimeMillis())
}
