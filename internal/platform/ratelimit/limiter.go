// Package ratelimit implements fixed-window request limits keyed by caller,
// backed by Redis when several processes share the limits, or by memory.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call. When Allowed is false, Rule is
// the first rule that was exceeded.
type Decision struct {
	Allowed    bool
	Rule       Rule
	RetryAfter time.Duration
}

type Limiter interface {
	// Allow counts one request for key against every rule.
	Allow(ctx context.Context, key string) (Decision, error)
}

// window returns the bucket number for t and the time until the bucket ends.
func window(t time.Time, w time.Duration) (int64, time.Duration) {
	n := t.UnixNano()
	bucket := n / int64(w)
	end := (bucket + 1) * int64(w)
	return bucket, time.Duration(end - n)
}
