package cache

import (
	"context"
	"testing"
	"time"

	"trihash/internal/sphere"
	"trihash/internal/trihash"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", []string{"1|"})
	c.Set("b", []string{"2|"})
	_, ok := c.Get("a") // a 变为最近使用
	require.True(t, ok)
	c.Set("c", []string{"3|"})

	_, ok = c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"1|"}, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU(4, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", []string{"1|"})
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUUpdateExisting(t *testing.T) {
	c := NewLRU(0, time.Minute)
	c.Set("a", []string{"1|"})
	c.Set("a", []string{"1|1"})
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"1|1"}, v)
	assert.Equal(t, 1, c.Len())
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestRedisGetSet(t *testing.T) {
	mr, rc := newRedis(t)
	ctx := context.Background()
	r := NewRedis(rc, "", time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", []string{"15|", "15|2"}))
	assert.True(t, mr.Exists(DefaultPrefix+"k"))
	v, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"15|", "15|2"}, v)

	mr.FastForward(2 * time.Minute)
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisNilClient(t *testing.T) {
	r := NewRedis(nil, "", time.Minute)
	_, ok, err := r.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, r.Set(context.Background(), "k", []string{"1|"}))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "25,-71,4", Key(25, -71, 4))
	assert.NotEqual(t, Key(0.1, 0.2, 3), Key(0.10000000000000002, 0.2, 3))
}

func TestEncoderLayers(t *testing.T) {
	mr, rc := newRedis(t)
	ctx := context.Background()
	lru := NewLRU(16, time.Minute)
	rds := NewRedis(rc, "t:", time.Minute)
	c := NewEncoder(trihash.NewEncoder(nil), lru, rds)

	h, err := c.Encode(ctx, 25, -71, 4)
	require.NoError(t, err)
	assert.Equal(t, "15|2222", h)
	assert.Equal(t, 1, lru.Len())
	assert.True(t, mr.Exists("t:"+Key(25, -71, 4)))

	// Redis 中的值回填到新的 LRU
	lru2 := NewLRU(16, time.Minute)
	c2 := NewEncoder(nil, lru2, rds)
	all, err := c2.EncodeAll(ctx, 25, -71, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"15|", "15|2", "15|22", "15|222", "15|2222"}, all)
	assert.Equal(t, 1, lru2.Len())

	// 缓存命中直接返回缓存内容
	require.NoError(t, rds.Set(ctx, Key(1, 1, 1), []string{"9|", "9|9"}))
	h, err = NewEncoder(nil, nil, rds).Encode(ctx, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "9|9", h)
}

func TestEncoderRedisDown(t *testing.T) {
	mr, rc := newRedis(t)
	mr.Close()
	c := NewEncoder(nil, nil, NewRedis(rc, "", time.Minute))
	h, err := c.Encode(context.Background(), 90, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, "1|222", h)
}

func TestEncoderErrorsNotCached(t *testing.T) {
	lru := NewLRU(16, time.Minute)
	c := NewEncoder(nil, lru, nil)
	_, err := c.Encode(context.Background(), 91, 0, 3)
	assert.ErrorIs(t, err, sphere.ErrRange)
	assert.Equal(t, 0, lru.Len())
}
