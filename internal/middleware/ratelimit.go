package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Counter is the slice of redis the limiter needs: atomic increment plus
// window expiry on the first hit.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, window time.Duration) error
}

type redisCounter struct {
	rdb *redis.Client
}

func (c redisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

func (c redisCounter) Expire(ctx context.Context, key string, window time.Duration) error {
	return c.rdb.Expire(ctx, key, window).Err()
}

// RateLimiter is a fixed-window counter. The first hit in a window sets the
// expiry; once the count exceeds the limit the request is rejected until the
// window rolls over.
type RateLimiter struct {
	counter Counter
	prefix  string
	limit   int
	window  time.Duration
}

// NewRateLimiter builds a redis-backed limiter. A nil client yields a no-op
// limiter, so redis-less deployments still serve requests.
func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	var counter Counter
	if rdb != nil {
		counter = redisCounter{rdb: rdb}
	}
	return &RateLimiter{counter: counter, prefix: prefix, limit: limit, window: window}
}

// ByKey limits requests per value of keyFunc, typically the authenticated
// user's email.
func (r *RateLimiter) ByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r.counter == nil {
			return c.Next()
		}
		ctx := c.Context()
		key := fmt.Sprintf("%s:%s", r.prefix, keyFunc(c))
		count, err := r.counter.Incr(ctx, key)
		if err != nil {
			// a broken limiter should not take the API down
			return c.Next()
		}
		if count == 1 {
			_ = r.counter.Expire(ctx, key, r.window)
		}
		if count > int64(r.limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"detail": "rate limit exceeded"})
		}
		return c.Next()
	}
}

// PerUser keys the limiter on the authenticated user, falling back to the
// client IP on unauthenticated routes.
func (r *RateLimiter) PerUser() fiber.Handler {
	return r.ByKey(func(c *fiber.Ctx) string {
		if user := CurrentUser(c); user != nil {
			return user.Email
		}
		return c.IP()
	})
}
