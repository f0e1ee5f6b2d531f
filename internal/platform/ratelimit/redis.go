package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is a Limiter shared by every instance that talks to the same Redis.
type RedisWindow struct {
	client    redis.UniversalClient
	namespace string
	limit     int
	period    time.Duration
}

// NewRedisWindow allows limit requests per key within each period.
func NewRedisWindow(client redis.UniversalClient, namespace string, limit int, period time.Duration) *RedisWindow {
	return &RedisWindow{client: client, namespace: namespace, limit: limit, period: period}
}

// Allow increments the key's counter. The first increment of a window sets
// the expiry, so the counter disappears when the window elapses.
func (r *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.namespace + ":" + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, k, r.period).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	if count <= int64(r.limit) {
		return Decision{Allowed: true, Remaining: r.limit - int(count)}, nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// Expiry lost (e.g. the process died between INCR and PEXPIRE).
		if err := r.client.PExpire(ctx, k, r.period).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = r.period
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

var _ Limiter = (*RedisWindow)(nil)
