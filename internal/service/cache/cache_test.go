package cache

import (
	"context"
	"testing"
	"time"

	"AgriChain/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCacheNormalizesKeys(t *testing.T) {
	c := NewModelCache(0)
	m := &models.TrainedModel{Commodity: "Onion", Market: "Lasalgaon"}

	c.Set(models.ModelKey{Commodity: "Onion", Market: "Lasalgaon"}, m)
	got, ok := c.Get(models.ModelKey{Commodity: " onion", Market: "LASALGAON "})
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Equal(t, 1, c.Len())

	c.Delete(models.ModelKey{Commodity: "ONION", Market: "lasalgaon"})
	_, ok = c.Get(models.ModelKey{Commodity: "Onion", Market: "Lasalgaon"})
	assert.False(t, ok)
}

func TestModelCacheExpiresAndFlushes(t *testing.T) {
	c := NewModelCache(20 * time.Millisecond)
	k := models.ModelKey{Commodity: "Rice", Market: "Karnal"}
	c.Set(k, &models.TrainedModel{})
	c.Set(models.ModelKey{Commodity: "Rice", Market: "Patna"}, &models.TrainedModel{})

	_, ok := c.Get(k)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get(k)
	assert.False(t, ok)

	c.Set(k, &models.TrainedModel{})
	c.Flush()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheBytes(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.SetBytes(ctx, "forecast:wheat|pune|30", []byte("a"), 0))
	require.NoError(t, c.SetBytes(ctx, "forecast:wheat|pune|7", []byte("b"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "forecast:rice|pune|7", []byte("c"), time.Minute))

	b, ok, err := c.GetBytes(ctx, "forecast:wheat|pune|30")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), b)

	require.NoError(t, c.DeletePrefix(ctx, "forecast:wheat|pune|"))
	_, ok, _ = c.GetBytes(ctx, "forecast:wheat|pune|7")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "forecast:rice|pune|7")
	assert.True(t, ok)
}

func TestLayeredCacheFillsL1FromL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache(time.Minute)
	c := NewLayeredCache(l2, time.Minute)

	require.NoError(t, l2.SetBytes(ctx, "forecast:onion|lasalgaon|7", []byte("x"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "forecast:onion|lasalgaon|7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), b)

	// served from L1 once L2 forgets it
	require.NoError(t, l2.DeletePrefix(ctx, "forecast:"))
	_, ok, _ = c.GetBytes(ctx, "forecast:onion|lasalgaon|7")
	assert.True(t, ok)

	require.NoError(t, c.DeletePrefix(ctx, "forecast:onion|"))
	_, ok, _ = c.GetBytes(ctx, "forecast:onion|lasalgaon|7")
	assert.False(t, ok)
}

func TestLayeredCacheWritesThrough(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache(time.Minute)
	c := NewLayeredCache(l2, 0)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := l2.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}
