package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in process. Closed windows are swept once the map grows past sweepAt.
type MemoryLimiter struct {
	mu       sync.Mutex
	window   Window
	counters map[string]counter
	sweepAt  int
	now      func() time.Time
}

func NewMemoryLimiter(w Window) *MemoryLimiter {
	return &MemoryLimiter{window: w, counters: make(map[string]counter), sweepAt: 1024, now: time.Now}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.counters) >= l.sweepAt {
		l.sweep(now)
	}
	c, ok := l.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = counter{resetAt: now.Add(l.window.Window)}
	}
	c.count++
	l.counters[key] = c
	return decide(l.window, c.count, c.resetAt), nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for k, c := range l.counters {
		if !now.Before(c.resetAt) {
			delete(l.counters, k)
		}
	}
	if len(l.counters) >= l.sweepAt {
		l.sweepAt *= 2
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
