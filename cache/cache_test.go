package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestMemoizeCachesWithinTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	calls := 0
	fn := func() (string, error) {
		calls++
		return "<html>rendered</html>", nil
	}

	got, err := Memoize(ctx, c, "rendered-html:test", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "<html>rendered</html>", got)

	got, err = Memoize(ctx, c, "rendered-html:test", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "<html>rendered</html>", got)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	_, err = Memoize(ctx, c, "rendered-html:test", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := Memoize(ctx, c, "k", time.Minute, func() (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestMemoizeDisabled(t *testing.T) {
	ctx := context.Background()
	calls := 0
	fn := func() (int, error) {
		calls++
		return calls, nil
	}

	// nil cache
	_, _ = Memoize(ctx, nil, "k", time.Minute, fn)
	_, _ = Memoize(ctx, nil, "k", time.Minute, fn)
	assert.Equal(t, 2, calls)

	// zero ttl
	c, _ := newTestCache(t)
	_, _ = Memoize(ctx, c, "k", 0, fn)
	_, _ = Memoize(ctx, c, "k", 0, fn)
	assert.Equal(t, 4, calls)
}

func TestMemoizeRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	got, err := Memoize(context.Background(), c, "k", time.Minute, func() (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}
