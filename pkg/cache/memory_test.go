package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	want := payload{Name: "random", Score: 0.92}
	require.NoError(t, mc.Set(ctx, "k", want, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, want, got)
}

func TestMemoryCacheStringPassthrough(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "plain text", time.Minute))

	var got string
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, "plain text", got)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got payload
	err := mc.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	err := mc.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	var v string
	require.NoError(t, mc.Get(ctx, "a", &v))
	time.Sleep(time.Millisecond)

	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "weeks:lativ:8", "a", time.Minute))
	require.NoError(t, mc.Set(ctx, "weeks:lativ:4", "b", time.Minute))
	require.NoError(t, mc.Set(ctx, "weeks:other:8", "c", time.Minute))

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("weeks:lativ:")))

	var v string
	assert.ErrorIs(t, mc.Get(ctx, "weeks:lativ:8", &v), ErrCacheMiss)
	assert.ErrorIs(t, mc.Get(ctx, "weeks:lativ:4", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "weeks:other:8", &v))
}
