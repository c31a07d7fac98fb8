package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maxviazov/catalog-service/internal/config"
)

// NewRedisClient connects and pings once so misconfiguration fails at startup.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// envelope carries the absolute deadline next to the payload; Redis itself only
// knows the current sliding TTL.
type envelope struct {
	Deadline int64  `json:"deadline"`
	Data     []byte `json:"data"`
}

// RedisStore keeps entries under prefix+key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	policy Policy
	now    clock
}

func NewRedisStore(client redis.UniversalClient, prefix string, policy Policy) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, policy: policy, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	k := s.prefix + key
	var (
		raw string
		err error
	)
	if s.policy.Sliding > 0 {
		raw, err = s.client.GetEx(ctx, k, s.policy.Sliding).Result()
	} else {
		raw, err = s.client.Get(ctx, k).Result()
	}
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		_ = s.client.Del(ctx, k).Err()
		return nil, ErrMiss
	}
	now := s.now()
	deadline := time.UnixMilli(env.Deadline)
	if !now.Before(deadline) {
		_ = s.client.Del(ctx, k).Err()
		return nil, ErrMiss
	}
	// GETEX renewed the full sliding window; pull it back to the absolute deadline.
	if s.policy.Sliding > 0 && deadline.Sub(now) < s.policy.Sliding {
		if err := s.client.PExpireAt(ctx, k, deadline).Err(); err != nil {
			return nil, err
		}
	}
	return env.Data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	deadline := now.Add(s.policy.Absolute)
	raw, err := json.Marshal(envelope{Deadline: deadline.UnixMilli(), Data: value})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.policy.ttl(now, deadline)).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.client.Del(ctx, full...).Err()
}

var _ Store = (*RedisStore)(nil)
