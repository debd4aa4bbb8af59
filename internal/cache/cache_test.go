package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spendtrack/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRUExpiry(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)
	c.Set("a", "1")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	clock.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Zero(t, c.Size())
}

func TestLRUCleanExpired(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](0, time.Minute).WithClock(clock.Now)
	c.Set("a", 1)
	clock.Advance(30 * time.Second)
	c.Set("b", 2)
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestMemoCachesUntilTTL(t *testing.T) {
	clock := newClock()
	m := NewMemo[int](5 * time.Minute).WithClock(clock.Now)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := m.Get(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(4 * time.Minute)
	v, _ = m.Get(context.Background(), "k", load)
	assert.Equal(t, 1, v)

	clock.Advance(time.Minute)
	v, _ = m.Get(context.Background(), "k", load)
	assert.Equal(t, 2, v)
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	m := NewMemo[int](time.Minute)
	boom := errors.New("boom")
	_, err := m.Get(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := m.Get(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemoSharesConcurrentLoads(t *testing.T) {
	m := NewMemo[int](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.Get(context.Background(), "k", load)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestMemoInvalidate(t *testing.T) {
	m := NewMemo[string](time.Hour)
	n := 0
	load := func(context.Context) (string, error) {
		n++
		return "v", nil
	}
	m.Get(context.Background(), "a", load)
	m.Get(context.Background(), "b", load)

	m.Invalidate("a")
	_, ok := m.Peek("a")
	assert.False(t, ok)
	_, ok = m.Peek("b")
	assert.True(t, ok)

	m.Invalidate()
	_, ok = m.Peek("b")
	assert.False(t, ok)

	m.Get(context.Background(), "a", load)
	assert.Equal(t, 3, n)
}

func TestMemoInvalidateDuringLoad(t *testing.T) {
	m := NewMemo[int](time.Hour)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 1, nil
	}
	fresh := func(context.Context) (int, error) {
		calls.Add(1)
		return 2, nil
	}

	first := make(chan int, 1)
	go func() {
		v, _ := m.Get(context.Background(), "k", stale)
		first <- v
	}()
	<-started

	m.Invalidate()
	v, err := m.Get(context.Background(), "k", fresh)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())

	close(release)
	assert.Equal(t, 1, <-first)

	cached, ok := m.Peek("k")
	require.True(t, ok)
	assert.Equal(t, 2, cached)
}

func TestMemoCallerCancel(t *testing.T) {
	m := NewMemo[int](time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx, "k", func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 1, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManagerCleanNow(t *testing.T) {
	clock := newClock()
	a := NewLRUCache[int](0, time.Second).WithClock(clock.Now)
	b := NewMemo[int](time.Second).WithClock(clock.Now)
	a.Set("x", 1)
	b.Get(context.Background(), "y", func(context.Context) (int, error) { return 1, nil })

	m := NewManager(log.Discard())
	m.Register(a, b)
	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
