package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalBucketsExhaustAndRefill(t *testing.T) {
	b := NewLocalBuckets()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := b.Allow(ctx, "client", 1, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := b.Allow(ctx, "client", 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := b.Allow(ctx, "other", 1, 2)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per key")

	now = now.Add(time.Second)
	res, err = b.Allow(ctx, "client", 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalBucketsValidate(t *testing.T) {
	b := NewLocalBuckets()
	_, err := b.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, errEmptyKey)
	_, err = b.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, errInvalidRate)
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	token, ok, err := l.TryLock(ctx, "session", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "session", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "session", "wrong-token"))
	_, ok, _ = l.TryLock(ctx, "session", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "session", token))
	_, ok, _ = l.TryLock(ctx, "session", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.TryLock(ctx, "session", time.Minute)
	assert.True(t, ok, "expired lock is taken over")

	_, _, err = l.TryLock(ctx, "", time.Minute)
	assert.ErrorIs(t, err, errLockKeyEmpty)
}

func TestNilGenerateLimiterAllows(t *testing.T) {
	var l *GenerateLimiter
	assert.False(t, l.Enabled())

	res, err := l.AllowClient(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	release, ok, err := l.AcquireRender(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestNewGenerateLimiter(t *testing.T) {
	t.Run("disabled still locks renders", func(t *testing.T) {
		l, err := NewGenerateLimiter(GenerateLimiterParams{Config: config.Config{}, Log: zap.NewNop()})
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.False(t, l.Enabled())
		assert.IsType(t, &MemoryLocker{}, l.locker)

		ctx := context.Background()
		res, err := l.AllowClient(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		release, ok, err := l.AcquireRender(ctx, "s1")
		require.NoError(t, err)
		require.True(t, ok)
		_, ok, err = l.AcquireRender(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, ok)
		release()
	})

	t.Run("invalid rate", func(t *testing.T) {
		cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}
		_, err := NewGenerateLimiter(GenerateLimiterParams{Config: cfg})
		assert.Error(t, err)
	})

	t.Run("in-process without redis", func(t *testing.T) {
		cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, GenerateRate: 1, GenerateBurst: 1}}
		l, err := NewGenerateLimiter(GenerateLimiterParams{Config: cfg})
		require.NoError(t, err)
		require.True(t, l.Enabled())

		ctx := context.Background()
		res, err := l.AllowClient(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		res, err = l.AllowClient(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	})
}

func TestLoadWithoutRedisAddrUsesLocalLimiter(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REDIS_ADDR", "")

	cfg := config.Load()
	require.Empty(t, cfg.RateLimit.RedisAddr)

	l, err := NewGenerateLimiter(GenerateLimiterParams{Config: cfg, Log: zap.NewNop()})
	require.NoError(t, err)
	assert.True(t, l.Enabled())
	assert.IsType(t, &LocalBuckets{}, l.bucket)
	assert.IsType(t, &MemoryLocker{}, l.locker)
}

func TestAcquireRenderSingleFlight(t *testing.T) {
	l := NewLocalGenerateLimiter(1, 1)
	ctx := context.Background()

	release, ok, err := l.AcquireRender(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.AcquireRender(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	_, ok, err = l.AcquireRender(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, defaultBucketTTL(1, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
}

func TestScriptReplyCasts(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(7), castToInt("7"))
	assert.InDelta(t, 0.25, castToFloat("0.25"), 1e-9)
	assert.InDelta(t, 3.0, castToFloat(int64(3)), 1e-9)
	assert.Zero(t, castToFloat("nope"))
	assert.Zero(t, castToFloat(nil))
}
