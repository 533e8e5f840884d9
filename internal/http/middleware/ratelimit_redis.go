// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a fixed-window rate limiter backed by Redis so every
// replica enforces one shared budget per tenant or client IP. Each window is
// a single INCR'd key that expires with the window. Redis failures let the
// request through (fail-open) and are logged.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// windowCounter increments the hit counter of key and returns the new value.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb redis.Cmdable
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		// first hit opens the window; later hits must not extend it
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// RedisLimiter allows at most limit requests per key per window.
type RedisLimiter struct {
	counter windowCounter
	limit   int64
	window  time.Duration
	keyFn   keyFunc
	prefix  string
	now     func() time.Time
}

// NewRedisLimiter builds a limiter on rdb. limit <= 0 is coerced to 1 and
// window <= 0 to one second.
func NewRedisLimiter(rdb redis.Cmdable, limit int, window time.Duration, keyFn keyFunc) *RedisLimiter {
	return newRedisLimiter(redisCounter{rdb: rdb}, limit, window, keyFn)
}

func newRedisLimiter(counter windowCounter, limit int, window time.Duration, keyFn keyFunc) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		keyFn:   keyFn,
		prefix:  "receptionist:rl:",
		now:     time.Now,
	}
}

// Handler returns the Gin middleware. Idempotent replays are not counted.
func (rl *RedisLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		slot := now.UnixNano() / int64(rl.window)
		key := rl.prefix + rl.keyFn(c) + ":" + strconv.FormatInt(slot, 10)

		n, err := rl.counter.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("rate limiter unavailable; allowing request")
			c.Next()
			return
		}
		if n <= rl.limit {
			c.Next()
			return
		}

		windowEnd := time.Unix(0, (slot+1)*int64(rl.window))
		retry := int(windowEnd.Sub(now).Seconds() + 0.999)
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
