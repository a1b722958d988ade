package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyGenerateClient = "quickinvoice:generate:client:%s"
	keyGenerateLock   = "quickinvoice:generate:lock:%s"

	defaultRenderLockTTL = 30 * time.Second
)

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error)
}

// GenerateLimiter throttles document generation per client and keeps a
// single render in flight per wizard session. Throttling is off when no
// bucket is set. A nil limiter allows everything.
type GenerateLimiter struct {
	bucket  bucket
	locker  Locker
	rate    float64
	burst   int
	lockTTL time.Duration
}

type GenerateLimiterParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// NewGenerateLimiter always returns a limiter so the per-session render lock
// holds even when client throttling is disabled. Redis backs both concerns
// when an address is configured, otherwise they run in-process.
func NewGenerateLimiter(p GenerateLimiterParams) (*GenerateLimiter, error) {
	limitCfg := p.Config.RateLimit
	if limitCfg.Enabled && (limitCfg.GenerateRate <= 0 || limitCfg.GenerateBurst <= 0) {
		return nil, errors.New("generate rate limit must be positive")
	}

	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratelimit")

	limiter := &GenerateLimiter{
		rate:    limitCfg.GenerateRate,
		burst:   limitCfg.GenerateBurst,
		lockTTL: defaultRenderLockTTL,
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		limiter.locker = NewMemoryLocker()
		if limitCfg.Enabled {
			limiter.bucket = NewLocalBuckets()
		}
		log.Info("generate limiter running in-process", zap.Bool("throttle", limitCfg.Enabled))
		return limiter, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}

	limiter.locker = NewRedisLocker(client)
	if limitCfg.Enabled {
		limiter.bucket = NewTokenBucket(client)
	}
	log.Info("generate limiter using redis", zap.String("addr", addr), zap.Bool("throttle", limitCfg.Enabled))
	return limiter, nil
}

func NewLocalGenerateLimiter(rate float64, burst int) *GenerateLimiter {
	return &GenerateLimiter{
		bucket:  NewLocalBuckets(),
		locker:  NewMemoryLocker(),
		rate:    rate,
		burst:   burst,
		lockTTL: defaultRenderLockTTL,
	}
}

func (l *GenerateLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowClient takes one token from the client's bucket.
func (l *GenerateLimiter) AllowClient(ctx context.Context, clientID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyGenerateClient, strings.TrimSpace(clientID)), l.rate, l.burst)
}

// AcquireRender claims the session's render slot. The returned release func
// is safe to call when the slot was not acquired.
func (l *GenerateLimiter) AcquireRender(ctx context.Context, sessionID string) (func(), bool, error) {
	if l == nil || l.locker == nil {
		return func() {}, true, nil
	}
	key := fmt.Sprintf(keyGenerateLock, strings.TrimSpace(sessionID))
	token, ok, err := l.locker.TryLock(ctx, key, l.lockTTL)
	if err != nil || !ok {
		return func() {}, ok, err
	}
	return func() {
		_ = l.locker.Release(context.WithoutCancel(ctx), key, token)
	}, true, nil
}
