//go:generate go run go.uber.org/mock/mockgen -source=ratelimit.go -destination=../../mocks/mock_rate_limiter.go -package=mocks
package httpx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IRateLimiter counts hits per key over a fixed window.
// Allow reports false once the key went over the limit of the current window.
type IRateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Close() error
}

type window struct {
	count int
	ends  time.Time
}

// MemoryRateLimiter keeps its windows in the process; it is enough for a single instance.
type MemoryRateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

func NewMemoryRateLimiter(limit int, period time.Duration) *MemoryRateLimiter {
	if period <= 0 {
		period = time.Minute
	}
	return &MemoryRateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]window),
	}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.ends) {
		w = window{ends: now.Add(rl.period)}
		rl.sweep(now)
	}
	w.count++
	rl.windows[key] = w
	return w.count <= rl.limit
}

// sweep drops expired windows; called with mu held.
func (rl *MemoryRateLimiter) sweep(now time.Time) {
	for key, w := range rl.windows {
		if !now.Before(w.ends) {
			delete(rl.windows, key)
		}
	}
}

func (rl *MemoryRateLimiter) Close() error { return nil }

// RedisRateLimiter shares the windows between instances through INCR and EXPIRE.
// A Redis failure lets the hit through.
type RedisRateLimiter struct {
	client  *redis.Client
	log     *slog.Logger
	prefix  string
	limit   int
	period  time.Duration
	timeout time.Duration
}

// NewRedisClient connects and pings, so a wrong address fails at startup.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisRateLimiter(client *redis.Client, log *slog.Logger, limit int, period time.Duration) *RedisRateLimiter {
	if period <= 0 {
		period = time.Minute
	}
	return &RedisRateLimiter{
		client:  client,
		log:     log,
		prefix:  "outmentor:ratelimit:",
		limit:   limit,
		period:  period,
		timeout: 250 * time.Millisecond,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.log.Error("Rate limiter unavailable", "op", "incr", "key", key, "error", err)
		return true
	}
	// A window without expiry is either new or lost its EXPIRE: arm it again.
	if ttl.Val() < 0 {
		if err := rl.client.Expire(ctx, redisKey, rl.period).Err(); err != nil {
			rl.log.Error("Rate limiter unavailable", "op", "expire", "key", key, "error", err)
		}
	}
	return int(incr.Val()) <= rl.limit
}

func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}
