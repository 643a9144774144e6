// Package pool provides typed object pools for argtree's hot paths:
// matcher consumption marks and log line buffers.
package pool

import "sync"

// Pool is a type-safe wrapper around sync.Pool
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)
}

// NewPool creates a new generic pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{New: func() any { return factory() }},
	}
}

// NewPoolWithReset creates a pool with a reset function called before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool. Nil is ignored.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

const maxPooledCap = 4096

var buffers = NewPoolWithReset(
	func() *[]byte {
		b := make([]byte, 0, 256)
		return &b
	},
	func(b *[]byte) { *b = (*b)[:0] },
)

// GetBuffer returns an empty byte buffer with at least minCap capacity.
func GetBuffer(minCap int) *[]byte {
	b := buffers.Get()
	if cap(*b) < minCap {
		*b = make([]byte, 0, minCap)
	}
	return b
}

// PutBuffer returns a buffer obtained from GetBuffer. Oversized buffers are dropped.
func PutBuffer(b *[]byte) {
	if b == nil || cap(*b) > maxPooledCap {
		return
	}
	buffers.Put(b)
}

var marks = NewPool(func() *[]bool {
	m := make([]bool, 0, 16)
	return &m
})

// GetMarks returns a zeroed []bool of length n.
func GetMarks(n int) *[]bool {
	m := marks.Get()
	if cap(*m) < n {
		*m = make([]bool, n)
		return m
	}
	*m = (*m)[:n]
	clear(*m)
	return m
}

// PutMarks returns a slice obtained from GetMarks.
func PutMarks(m *[]bool) {
	if m == nil || cap(*m) > maxPooledCap {
		return
	}
	marks.Put(m)
}
