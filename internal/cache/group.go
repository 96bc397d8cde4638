// Package cache provides a keyed get-or-load cache that runs at most one
// load per key at a time.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sha1n/relic-posts/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// LoadFunc loads the value for key.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// Option configures a Group.
type Option[V any] func(*Group[V])

// WithTimeout bounds each load. Zero means no timeout.
func WithTimeout[V any](d time.Duration) Option[V] {
	return func(g *Group[V]) {
		g.timeout = d
	}
}

// WithRelease sets a hook invoked for every cached value on Close and Forget.
func WithRelease[V any](release func(V)) Option[V] {
	return func(g *Group[V]) {
		g.release = release
	}
}

// Group memoizes loaded values by key.
//
// Concurrent GetOrLoad calls for a key that is not cached share a single
// in-flight load and observe the same result. Successful results are kept
// until Forget or Close. Failed loads are not cached, so the next call
// starts a fresh attempt.
type Group[V any] struct {
	name    string
	load    LoadFunc[V]
	timeout time.Duration
	release func(V)

	flight singleflight.Group
	mu     sync.RWMutex
	values map[string]V
}

// New creates a Group. name labels the group's metrics.
func New[V any](name string, load func(ctx context.Context, key string) (V, error), opts ...Option[V]) *Group[V] {
	g := &Group[V]{
		name:   name,
		load:   load,
		values: make(map[string]V),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetOrLoad returns the cached value for key, loading it if needed.
//
// The shared load is detached from ctx: a caller whose ctx is done stops
// waiting and gets ctx.Err(), while the load continues for other waiters.
func (g *Group[V]) GetOrLoad(ctx context.Context, key string) (V, error) {
	if v, ok := g.lookup(key); ok {
		metrics.CacheRequestsTotal.WithLabelValues(g.name, metrics.ResultHit).Inc()
		return v, nil
	}

	ch := g.flight.DoChan(key, func() (any, error) {
		// A load for key may have completed between lookup and DoChan.
		if v, ok := g.lookup(key); ok {
			return v, nil
		}
		return g.doLoad(context.WithoutCancel(ctx), key)
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.CacheRequestsTotal.WithLabelValues(g.name, metrics.ResultError).Inc()
			return zero, res.Err
		}
		result := metrics.ResultMiss
		if res.Shared {
			result = metrics.ResultShared
		}
		metrics.CacheRequestsTotal.WithLabelValues(g.name, result).Inc()
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (g *Group[V]) doLoad(ctx context.Context, key string) (V, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := g.load(ctx, key)
	metrics.CacheLoadDuration.WithLabelValues(g.name).Observe(time.Since(start).Seconds())
	if err != nil {
		return v, err
	}

	g.mu.Lock()
	g.values[key] = v
	g.mu.Unlock()
	return v, nil
}

func (g *Group[V]) lookup(key string) (V, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[key]
	return v, ok
}

// Len returns the number of cached values.
func (g *Group[V]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.values)
}

// Forget drops the cached value for key, releasing it.
func (g *Group[V]) Forget(key string) {
	g.mu.Lock()
	v, ok := g.values[key]
	delete(g.values, key)
	g.mu.Unlock()

	if ok && g.release != nil {
		g.release(v)
	}
}

// Close releases and drops all cached values.
func (g *Group[V]) Close() {
	g.mu.Lock()
	values := g.values
	g.values = make(map[string]V)
	g.mu.Unlock()

	if g.release == nil {
		return
	}
	for _, v := range values {
		g.release(v)
	}
}
