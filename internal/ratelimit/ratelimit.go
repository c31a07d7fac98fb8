// Package ratelimit implements fixed-window request limiting.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window closes.
	ResetAt time.Time
}

// RetryAfter is the wait until the window resets, rounded up to whole seconds and never below one.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	secs := (wait + time.Second - 1) / time.Second
	return secs * time.Second
}

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Window is the limiter configuration: Limit permits per Window.
type Window struct {
	Limit  int
	Window time.Duration
}

func decide(w Window, count int, resetAt time.Time) Decision {
	remaining := w.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= w.Limit, Limit: w.Limit, Remaining: remaining, ResetAt: resetAt}
}
