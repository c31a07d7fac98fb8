package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Observer is notified of lookups; *metrics.Metrics implements it.
type Observer interface {
	ObserveCacheHit(cache string)
	ObserveCacheMiss(cache string)
}

// Typed stores values of T as JSON.
type Typed[T any] struct {
	store Store
	name  string
	obs   Observer
}

// NewTyped wraps store; name labels observations. obs may be nil.
func NewTyped[T any](store Store, name string, obs Observer) *Typed[T] {
	return &Typed[T]{store: store, name: name, obs: obs}
}

// Get reports (value, true, nil) on a hit and (zero, false, nil) on a miss.
func (c *Typed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		c.miss()
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.miss()
		_ = c.store.Delete(ctx, key)
		return zero, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	if c.obs != nil {
		c.obs.ObserveCacheHit(c.name)
	}
	return v, true, nil
}

func (c *Typed[T]) Set(ctx context.Context, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw)
}

func (c *Typed[T]) Delete(ctx context.Context, keys ...string) error {
	return c.store.Delete(ctx, keys...)
}

func (c *Typed[T]) miss() {
	if c.obs != nil {
		c.obs.ObserveCacheMiss(c.name)
	}
}
