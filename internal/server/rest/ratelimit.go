package rest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/logging"
	"github.com/redis/go-redis/v9"
)

// LimitStore counts requests per key within a fixed window.
type LimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type clientRequest struct {
	count     int
	resetTime time.Time
}

// MemoryStore keeps counters in process. Expired counters are dropped on
// access once per window.
type MemoryStore struct {
	mu          sync.Mutex
	requests    map[string]*clientRequest
	now         func() time.Time
	nextCleanup time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*clientRequest), now: time.Now}
}

func (m *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.After(m.nextCleanup) {
		m.cleanup(now)
		m.nextCleanup = now.Add(window)
	}

	client, exists := m.requests[key]
	if !exists || now.After(client.resetTime) {
		m.requests[key] = &clientRequest{count: 1, resetTime: now.Add(window)}
		return true, 0, nil
	}

	if client.count >= limit {
		return false, client.resetTime.Sub(now), nil
	}

	client.count++
	return true, 0, nil
}

func (m *MemoryStore) cleanup(now time.Time) {
	for key, client := range m.requests {
		if now.After(client.resetTime) {
			delete(m.requests, key)
		}
	}
}

// RedisStore shares counters between server instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(c redis.Cmdable) *RedisStore {
	return &RedisStore{client: c, prefix: "ratelimit:"}
}

func (r *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := r.prefix + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis pexpire: %w", err)
		}
	}
	if count <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}

// rateLimiter rejects clients above limit requests per window with 429. Store
// failures let the request through.
func rateLimiter(store LimitStore, limit int, window time.Duration, l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := store.Allow(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			l.Warn(c.Request.Context(), "rate limit store unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}
		c.Next()
	}
}
