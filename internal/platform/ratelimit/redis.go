package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client redis.Cmdable
	rules  []Rule
	prefix string
	now    func() time.Time
}

// NewRedisLimiter counts in Redis under "<prefix>:<key>:<window>:<bucket>".
// An empty prefix defaults to "ratelimit".
func NewRedisLimiter(client redis.Cmdable, rules []Rule, prefix string) Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &redisLimiter{client: client, rules: rules, prefix: prefix, now: time.Now}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if len(l.rules) == 0 {
		return Decision{Allowed: true}, nil
	}
	t := l.now()
	remaining := make([]time.Duration, len(l.rules))
	incrs := make([]*redis.IntCmd, len(l.rules))

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, r := range l.rules {
			bucket, left := window(t, r.Window)
			remaining[i] = left
			k := fmt.Sprintf("%s:%s:%d:%d", l.prefix, key, int64(r.Window/time.Second), bucket)
			incrs[i] = pipe.Incr(ctx, k)
			pipe.Expire(ctx, k, r.Window+time.Second)
		}
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counters for %s: %w", key, err)
	}

	for i, r := range l.rules {
		if incrs[i].Val() > int64(r.Limit) {
			return Decision{Allowed: false, Rule: r, RetryAfter: remaining[i]}, nil
		}
	}
	return Decision{Allowed: true}, nil
}
