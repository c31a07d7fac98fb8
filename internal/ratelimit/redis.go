package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter and starts the window on the first hit.
// Returns {count, pttl}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter shares windows across every instance pointed at the same Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	window Window
	now    func() time.Time
}

// NewRedisLimiter namespaces keys under "ratelimit:<name>:".
func NewRedisLimiter(client redis.UniversalClient, name string, w Window) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:" + name + ":", window: w, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindow.Run(ctx, l.client, []string{l.prefix + key}, l.window.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	resetAt := l.now().Add(time.Duration(res[1]) * time.Millisecond)
	return decide(l.window, int(res[0]), resetAt), nil
}

var _ Limiter = (*RedisLimiter)(nil)
