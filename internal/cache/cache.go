// Package cache stores serialized values with an absolute lifetime and an
// optional sliding window that is renewed on every hit.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte cache. Implementations apply their Policy to every entry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Policy bounds an entry's life: it never outlives Absolute after Set and,
// when Sliding > 0, expires after Sliding without a hit.
type Policy struct {
	Absolute time.Duration
	Sliding  time.Duration
}

// ttl is how long an entry stays alive from now given its absolute deadline.
func (p Policy) ttl(now, deadline time.Time) time.Duration {
	left := deadline.Sub(now)
	if p.Sliding > 0 && p.Sliding < left {
		return p.Sliding
	}
	return left
}

type clock func() time.Time
