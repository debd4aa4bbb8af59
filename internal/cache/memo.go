package cache

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo caches the result of a load function per key for a fixed TTL.
// Concurrent misses on the same key share a single load. Calls are
// grouped per generation, so a miss after Invalidate never joins a load
// that started before it.
type Memo[T any] struct {
	cache *LRUCache[T]
	group singleflight.Group
	gen   atomic.Uint64
}

// NewMemo returns a memo whose entries live for ttl.
func NewMemo[T any](ttl time.Duration) *Memo[T] {
	return &Memo[T]{cache: NewLRUCache[T](0, ttl)}
}

// WithClock replaces the time source of the underlying cache.
func (m *Memo[T]) WithClock(now func() time.Time) *Memo[T] {
	m.cache.WithClock(now)
	return m
}

// Get returns the cached value for key or runs load to produce it. The
// load runs detached from ctx cancellation so that a departing caller
// does not fail the others waiting on it; ctx still bounds how long this
// caller waits. Errors are not cached.
func (m *Memo[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}

	gen := m.gen.Load()
	ch := m.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		if m.gen.Load() == gen {
			m.cache.Set(key, v)
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Peek returns the cached value without loading.
func (m *Memo[T]) Peek(key string) (T, bool) {
	return m.cache.Get(key)
}

// Invalidate drops the given keys, or everything when none are given.
// Loads already in flight finish but their results are not stored.
func (m *Memo[T]) Invalidate(keys ...string) {
	m.gen.Add(1)
	if len(keys) == 0 {
		m.cache.Clear()
		return
	}
	for _, k := range keys {
		m.cache.Delete(k)
	}
}

// CleanExpired lets a Manager evict expired entries.
func (m *Memo[T]) CleanExpired() int {
	return m.cache.CleanExpired()
}
