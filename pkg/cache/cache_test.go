package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	require.NoError(t, mc.Set(ctx, "p", point{Name: "a", Values: []float64{1, 2}}))
	var got point
	require.NoError(t, mc.Get(ctx, "p", &got))
	assert.Equal(t, point{Name: "a", Values: []float64{1, 2}}, got)

	require.NoError(t, mc.Set(ctx, "s", "plain"))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)

	ok, err := mc.Exists(ctx, "missing", "p")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Delete(ctx, "p"))
	assert.ErrorIs(t, mc.Get(ctx, "p", &got), ErrCacheMiss)
}

func TestMemoryCacheStoresCopies(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	v := point{Values: []float64{1}}
	require.NoError(t, mc.Set(ctx, "k", v))
	v.Values[0] = 99

	var got point
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, 1.0, got.Values[0])
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2))
	time.Sleep(2 * time.Millisecond)
	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &n), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &n))
	assert.Equal(t, 1, n)
}

func TestLayeredCache(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithMemoryMaxSize(10))

	require.NoError(t, lc.Set(ctx, "k", point{Name: "x"}))
	var got point
	require.NoError(t, remote.Get(ctx, "k", &got))
	assert.Equal(t, "x", got.Name)

	// populated only in L2: read through and promote
	require.NoError(t, remote.Set(ctx, "only-remote", point{Name: "r"}))
	require.NoError(t, lc.Get(ctx, "only-remote", &got))
	assert.Equal(t, "r", got.Name)
	require.NoError(t, remote.Delete(ctx, "only-remote"))
	require.NoError(t, lc.Get(ctx, "only-remote", &got))

	assert.ErrorIs(t, lc.Get(ctx, "nope", &got), ErrCacheMiss)
	require.NoError(t, lc.Close())
}

func TestHashKey(t *testing.T) {
	a, err := HashKey("fn", map[string]int{"x": 1, "y": 2})
	require.NoError(t, err)
	b, err := HashKey("fn", map[string]int{"y": 2, "x": 1})
	require.NoError(t, err)
	c, err := HashKey("other", map[string]int{"x": 1, "y": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = HashKey("fn", func() {})
	assert.Error(t, err)
}

func TestMemoComputesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemo(NewMemoryCache())
	var calls atomic.Int32
	compute := func(context.Context) (point, error) {
		calls.Add(1)
		return point{Name: "v", Values: []float64{0.5}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Do(ctx, m, "stats", map[string]string{"t": "a"}, compute)
		require.NoError(t, err)
		assert.Equal(t, "v", got.Name)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := Do(ctx, m, "stats", map[string]string{"t": "b"}, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoCoalescesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	m := NewMemo(NewMemoryCache())
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Do(ctx, m, "slow", 1, func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoDoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMemo(NewMemoryCache())
	boom := errors.New("boom")

	_, err := Do(ctx, m, "f", nil, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Do(ctx, m, "f", nil, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
