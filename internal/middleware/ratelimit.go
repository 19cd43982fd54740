package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles a route per client IP over a fixed window. Counters
// live in Redis so every replica sees the same count; without Redis it falls
// back to an in-process map, which is per-replica but still bounds abuse.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration

	mu     sync.Mutex
	local  map[string]*localWindow
	logger *slog.Logger
}

type localWindow struct {
	count   int64
	resetAt time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int64, window time.Duration, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		local:  make(map[string]*localWindow),
		logger: logger,
	}
}

func (l *RateLimiter) Middleware(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + route + ":" + c.ClientIP()

		allowed, err := l.allow(c.Request.Context(), key)
		if err != nil {
			// Redis being down should not take ingestion down with it.
			l.logger.Warn("rate limit check failed, allowing request", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	if l.rdb == nil {
		return l.allowLocal(key), nil
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.local[key]
	if !ok || now.After(w.resetAt) {
		l.local[key] = &localWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	w.count++
	return w.count <= l.limit
}
