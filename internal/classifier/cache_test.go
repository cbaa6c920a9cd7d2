package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb, time.Hour), mr
}

func TestCachePutGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "https://ex.com/article")
	require.NoError(t, err)
	assert.Nil(t, miss)

	stored := &Classification{
		URL:        "https://ex.com/article",
		IABCode:    "IAB9",
		IABSubcode: "IAB9-30",
	}
	require.NoError(t, cache.Put(ctx, stored))

	hit, err := cache.Get(ctx, "https://ex.com/article")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "IAB9", hit.IABCode)
	assert.Equal(t, "IAB9-30", hit.IABSubcode)
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set(cacheKey("https://ex.com/bad"), "{not json")

	hit, err := cache.Get(ctx, "https://ex.com/bad")
	require.NoError(t, err)
	assert.Nil(t, hit)

	assert.False(t, mr.Exists(cacheKey("https://ex.com/bad")), "corrupt entries are dropped")
}

func TestCacheFlush(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, &Classification{URL: "https://ex.com/a"}))
	require.NoError(t, cache.Put(ctx, &Classification{URL: "https://ex.com/b"}))
	mr.Set("unrelated:key", "survives")

	removed, err := cache.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	hit, err := cache.Get(ctx, "https://ex.com/a")
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.True(t, mr.Exists("unrelated:key"), "flush only touches classification keys")
}

func TestCacheFlushHeldByAnotherReplica(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("lock:classification-flush", "someone-else"))

	_, err := cache.Flush(ctx)
	assert.ErrorIs(t, err, ErrFlushInProgress)
}

func TestCachedClassifierReadThrough(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	// Dry-run client: every uncached call yields the simulated result.
	cc := NewCachedClassifier(NewClient("http://unused", "", true), cache)

	first, err := cc.Classify(ctx, "https://ex.com/article")
	require.NoError(t, err)
	assert.Equal(t, "IAB9", first.IABCode)

	// The result is now cached; mutate the cache to prove the second read
	// comes from it.
	first.IABSubcode = "IAB9-30-1"
	require.NoError(t, cache.Put(ctx, first))

	second, err := cc.Classify(ctx, "https://ex.com/article")
	require.NoError(t, err)
	assert.Equal(t, "IAB9-30-1", second.IABSubcode)
}
