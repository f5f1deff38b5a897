package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func BenchmarkMemoryLimiter_CheckLimit(b *testing.B) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 1 << 30, Window: time.Hour})
	if err != nil {
		b.Fatal(err)
	}
	defer limiter.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.CheckLimit(ctx, "ip:203.0.113.7")
	}
}

func BenchmarkMemoryLimiter_CheckLimit_ManyClients(b *testing.B) {
	limiter, err := NewMemoryLimiter(BookingConfig())
	if err != nil {
		b.Fatal(err)
	}
	defer limiter.Close()
	ctx := context.Background()

	ids := make([]string, 1024)
	for i := range ids {
		ids[i] = "client:" + strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.CheckLimit(ctx, ids[i%len(ids)])
	}
}

func BenchmarkMemoryLimiter_CheckLimit_Parallel(b *testing.B) {
	limiter, err := NewMemoryLimiter(FormSubmissionConfig())
	if err != nil {
		b.Fatal(err)
	}
	defer limiter.Close()
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = limiter.CheckLimit(ctx, "client:"+strconv.Itoa(i%64))
			i++
		}
	})
}
