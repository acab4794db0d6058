// Package pool provides typed object pooling for the conversion hot path.
// Frame buffers and text rows are recycled between records so that a long
// export or import allocates per batch rather than per field.
//
// Example usage:
//
//	buf := pool.GetFrame()
//	defer pool.PutFrame(buf)
//
//	*buf = append(*buf, body...)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic object pool with type safety.
// It wraps sync.Pool with an optional reset function and usage statistics.
// The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// Stats is a snapshot of a pool's counters.
type Stats struct {
	Allocated int64
	InUse     int64
	Gets      int64
}

// New creates a typed pool. newFn is called when the pool is empty; reset,
// when non-nil, runs before an object goes back into the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, allocating one if needed.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the current counters. Gets minus Allocated approximates
// the number of reuses.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Allocated: atomic.LoadInt64(&p.stats.allocated),
		InUse:     atomic.LoadInt64(&p.stats.inUse),
		Gets:      atomic.LoadInt64(&p.stats.gets),
	}
}
