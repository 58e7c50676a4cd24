package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	c, err := New(&platformconfig.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok := c.(*NoopCache)
	assert.True(t, ok)
}

func TestNew_RejectsUnknownBackend(t *testing.T) {
	_, err := New(&platformconfig.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}
