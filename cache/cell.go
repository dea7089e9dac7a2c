// Package cache holds process-wide values that are computed once and reused.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cell is a write-once value. Concurrent Get calls made while no value is
// stored share a single load; a failed load is forgotten so the next Get
// starts over.
type Cell[T any] struct {
	ctx   context.Context
	group singleflight.Group

	mu    sync.RWMutex
	set   bool
	value T
}

// NewCell returns an empty cell. Loads run under ctx rather than under any
// single caller's context, since one caller giving up must not fail the others.
func NewCell[T any](ctx context.Context) *Cell[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Cell[T]{ctx: ctx}
}

// Peek returns the stored value, if any.
func (c *Cell[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.set
}

// Store sets the value unless one is already present.
func (c *Cell[T]) Store(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return false
	}
	c.value = v
	c.set = true
	return true
}

// Get returns the stored value or joins the pending load, starting one with
// load if none is in flight. A caller whose ctx ends stops waiting but the
// load keeps running for everyone else.
func (c *Cell[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Peek(); ok {
		return v, nil
	}

	ch := c.group.DoChan("value", func() (interface{}, error) {
		if v, ok := c.Peek(); ok {
			return v, nil
		}
		v, err := load(c.ctx)
		if err != nil {
			return v, err
		}
		c.Store(v)
		stored, _ := c.Peek()
		return stored, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
