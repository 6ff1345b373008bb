package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryCounter struct {
	bucket int64
	count  int
}

type memoryLimiter struct {
	rules []Rule
	now   func() time.Time

	mu       sync.Mutex
	counters map[string]*memoryCounter
	sweepAt  time.Time
}

// NewMemoryLimiter keeps counters in process memory. now may be nil.
func NewMemoryLimiter(rules []Rule, now func() time.Time) Limiter {
	if now == nil {
		now = time.Now
	}
	return &memoryLimiter{
		rules:    rules,
		now:      now,
		counters: map[string]*memoryCounter{},
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	l.sweep(t)

	decision := Decision{Allowed: true}
	for _, r := range l.rules {
		bucket, remaining := window(t, r.Window)
		ck := key + "|" + r.Window.String()
		c, ok := l.counters[ck]
		if !ok || c.bucket != bucket {
			c = &memoryCounter{bucket: bucket}
			l.counters[ck] = c
		}
		c.count++
		if c.count > r.Limit && decision.Allowed {
			decision = Decision{Allowed: false, Rule: r, RetryAfter: remaining}
		}
	}
	return decision, nil
}

// sweep drops counters from finished windows at most once per minute.
func (l *memoryLimiter) sweep(t time.Time) {
	if t.Before(l.sweepAt) {
		return
	}
	l.sweepAt = t.Add(time.Minute)
	for ck, c := range l.counters {
		stale := true
		for _, r := range l.rules {
			if b, _ := window(t, r.Window); c.bucket == b {
				stale = false
				break
			}
		}
		if stale {
			delete(l.counters, ck)
		}
	}
}
