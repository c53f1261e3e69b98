// Package ratelimit implements fixed-window request limiters: one backed by
// Redis, shared by every server instance, and an in-process one used when
// Redis is not configured.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/answers-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter keys in a shared Redis.
const keyPrefix = "answers:ratelimit:"

// fixedWindow increments the counter for KEYS[1], starting its expiry on
// the first hit of a window, and returns the count and remaining TTL in ms.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// RedisLimiter allows Max requests per key in each Window, counted in Redis.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter creates a RedisLimiter on client.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

// Allow reports whether one more request under key fits in the current
// window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, l.client, []string{keyPrefix + key}, l.window.Milliseconds()).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	count, ok1 := res[0].(int64)
	ttlMillis, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected reply types %T, %T", res[0], res[1])
	}
	if ttlMillis < 0 {
		ttlMillis = l.window.Milliseconds()
	}

	if count > int64(l.max) {
		return false, time.Duration(ttlMillis) * time.Millisecond, nil
	}
	return true, 0, nil
}

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter is the in-process equivalent of RedisLimiter. Counts are
// per process, so several instances each allow Max requests.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	length  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(max int, length time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		max:     max,
		length:  length,
		now:     time.Now,
	}
}

// Allow implements the same contract as RedisLimiter.Allow and never fails.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.end) {
		l.sweep(now)
		l.windows[key] = &window{count: 1, end: now.Add(l.length)}
		return true, 0, nil
	}

	w.count++
	if w.count > l.max {
		return false, w.end.Sub(now), nil
	}
	return true, 0, nil
}

// sweep drops expired windows. Called with mu held.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.end) {
			delete(l.windows, k)
		}
	}
}

// Limiter is satisfied by both limiter implementations.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// New returns a RedisLimiter when redisCfg has a reachable URL and a
// MemoryLimiter otherwise. The returned close function releases the Redis
// client, if any.
func New(ctx context.Context, redisCfg config.RedisConfig, limits config.RateLimitConfig, logger *slog.Logger) (Limiter, func() error) {
	noop := func() error { return nil }
	memory := NewMemoryLimiter(limits.Requests, limits.Window())

	if redisCfg.URL == "" {
		logger.Info("redis not configured, using in-memory rate limiter")
		return memory, noop
	}

	opts, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		logger.Warn("invalid redis URL, using in-memory rate limiter", slog.String("error", err.Error()))
		return memory, noop
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory rate limiter", slog.String("error", err.Error()))
		_ = client.Close()
		return memory, noop
	}

	logger.Info("using redis rate limiter", slog.String("addr", opts.Addr))
	return NewRedisLimiter(client, limits.Requests, limits.Window()), client.Close
}
