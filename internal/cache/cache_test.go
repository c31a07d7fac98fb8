package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policy = Policy{Absolute: 30 * time.Second, Sliding: 15 * time.Second}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestPolicyTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.Equal(t, 15*time.Second, policy.ttl(now, now.Add(30*time.Second)))
	assert.Equal(t, 4*time.Second, policy.ttl(now, now.Add(4*time.Second)), "capped by deadline")
	assert.Equal(t, 30*time.Second, Policy{Absolute: 30 * time.Second}.ttl(now, now.Add(30*time.Second)), "no sliding")
}

func TestRedisStore_SlidingRenewalCappedByDeadline(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mr.SetTime(clk.t)

	s := NewRedisStore(client, "catalog:", policy)
	s.now = clk.now

	require.NoError(t, s.Set(ctx, "categories:all", []byte("v1")))
	assert.Equal(t, 15*time.Second, mr.TTL("catalog:categories:all"))

	clk.advance(10 * time.Second)
	mr.FastForward(10 * time.Second)
	mr.SetTime(clk.t)
	got, err := s.Get(ctx, "categories:all")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
	assert.Equal(t, 15*time.Second, mr.TTL("catalog:categories:all"), "hit renews the sliding window")

	clk.advance(14 * time.Second)
	mr.FastForward(14 * time.Second)
	mr.SetTime(clk.t)
	_, err = s.Get(ctx, "categories:all")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, mr.TTL("catalog:categories:all"), "renewal never passes the absolute deadline")
}

func TestRedisStore_ExpiresWithoutHits(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "", policy)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	mr.FastForward(16 * time.Second)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_DeadlineEnforcedFromEnvelope(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	clk := &fakeClock{t: time.Now()}
	s := NewRedisStore(client, "", policy)
	s.now = clk.now

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	clk.advance(30 * time.Second)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.False(t, mr.Exists("k"), "stale entry is removed")
}

func TestRedisStore_CorruptEntryIsMiss(t *testing.T) {
	mr, client := setupTestRedis(t)
	require.NoError(t, mr.Set("k", "not-json"))
	_, err := NewRedisStore(client, "", policy).Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "p:", policy)
	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	require.NoError(t, s.Delete(ctx, "a", "b"))
	require.NoError(t, s.Delete(ctx))
	assert.False(t, mr.Exists("p:a"))
	assert.False(t, mr.Exists("p:b"))
}

func TestMemoryStore_Policy(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewMemoryStore(policy)
	s.now = clk.now

	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	clk.advance(10 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err, "inside sliding window")

	clk.advance(14 * time.Second)
	_, err = s.Get(ctx, "k")
	require.NoError(t, err, "renewed by previous hit")

	clk.advance(6 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "absolute deadline reached")

	require.NoError(t, s.Set(ctx, "idle", []byte("v")))
	clk.advance(15 * time.Second)
	_, err = s.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrMiss, "sliding window elapsed")
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(policy)
	v := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'z'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

type countingObserver struct{ hits, misses int }

func (o *countingObserver) ObserveCacheHit(string)  { o.hits++ }
func (o *countingObserver) ObserveCacheMiss(string) { o.misses++ }

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestTyped_RoundTripAndObserver(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{}
	c := NewTyped[[]item](NewMemoryStore(policy), "categories", obs)

	_, ok, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []item{{ID: 1, Name: "Bebidas"}}
	require.NoError(t, c.Set(ctx, "all", want))
	got, ok, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestTyped_DecodeErrorEvicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(policy)
	require.NoError(t, store.Set(ctx, "k", []byte(`"not an item"`)))

	c := NewTyped[item](store, "x", nil)
	_, ok, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
