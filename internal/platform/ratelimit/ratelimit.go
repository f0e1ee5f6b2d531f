// Package ratelimit implements fixed-window request counters. A window opens
// on a key's first request and the count resets once it has elapsed.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1.
func (d Decision) RetryAfterSeconds() int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow is an in-process Limiter. Counters live only in this process,
// so a multi-instance deployment should use RedisWindow instead.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
	calls   int
}

// sweepEvery bounds how often expired windows are dropped.
const sweepEvery = 1024

// NewFixedWindow allows limit requests per key within each period.
func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow counts the request and reports whether it fits in the current window.
// Rejected requests still count.
func (f *FixedWindow) Allow(_ context.Context, key string) (Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.calls++
	if f.calls%sweepEvery == 0 {
		f.sweep(now)
	}

	w, ok := f.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(f.period)}
		f.windows[key] = w
	}
	w.count++

	if w.count > f.limit {
		return Decision{Allowed: false, RetryAfter: w.resetAt.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: f.limit - w.count}, nil
}

func (f *FixedWindow) sweep(now time.Time) {
	for key, w := range f.windows {
		if now.After(w.resetAt) {
			delete(f.windows, key)
		}
	}
}

var _ Limiter = (*FixedWindow)(nil)
