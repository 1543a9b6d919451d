package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/BearBump/FreightDesk/internal/cache"
)

// RateLimiter is a fixed-window counter per tenant.
type RateLimiter struct {
	c      *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(c *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{c: c, limit: limit, window: window, now: time.Now}
}

// Allow counts one request for companyID in the current window and reports
// whether it fits the limit, along with the count so far.
func (rl *RateLimiter) Allow(ctx context.Context, companyID string) (bool, int64, error) {
	bucket := rl.now().UnixNano() / int64(rl.window)
	key := cache.Key("ratelimit", companyID, strconv.FormatInt(bucket, 10))

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= rl.limit, n, nil
}

func (rl *RateLimiter) Limit() int64 { return rl.limit }
