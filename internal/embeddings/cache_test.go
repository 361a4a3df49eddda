package embeddings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLRUEvictsLeastRecent(t *testing.T) {
	lru := NewLocalLRU(2)
	ctx := context.Background()

	lru.Set(ctx, "a", []float32{1}, time.Minute)
	lru.Set(ctx, "b", []float32{2}, time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := lru.Get(ctx, "a")
	require.True(t, ok)

	lru.Set(ctx, "c", []float32{3}, time.Minute)

	_, ok = lru.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = lru.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = lru.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLocalLRUExpiry(t *testing.T) {
	lru := NewLocalLRU(4)
	ctx := context.Background()
	lru.Set(ctx, "k", []float32{1, 2}, 10*time.Millisecond)

	_, ok := lru.Get(ctx, "k")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = lru.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	cache, err := NewRedisCache(srv.Addr())
	require.NoError(t, err)
	ctx := context.Background()

	vec := []float32{0.5, -1.25, 3}
	cache.Set(ctx, "k", vec, time.Minute)

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache("127.0.0.1:1")
	assert.Error(t, err)
}

func TestMakeKeyIsStablePerModelAndText(t *testing.T) {
	k1 := MakeKey("model-a", "same text")
	k2 := MakeKey("model-a", "same text")
	k3 := MakeKey("model-b", "same text")
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "emb:")
}
