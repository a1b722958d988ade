package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalBuckets keeps one in-process token bucket per key. Buckets are not
// shared between replicas.
type LocalBuckets struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

func NewLocalBuckets() *LocalBuckets {
	return &LocalBuckets{
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (b *LocalBuckets) Allow(_ context.Context, key string, r float64, burst int) (*RateLimitResult, error) {
	if err := validateBucket(key, r, burst); err != nil {
		return &RateLimitResult{}, err
	}

	b.mu.Lock()
	lim, ok := b.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r), burst)
		b.buckets[key] = lim
	}
	b.mu.Unlock()

	now := b.now()
	allowed := lim.AllowN(now, 1)
	return newResult(allowed, lim.TokensAt(now), r, burst), nil
}
