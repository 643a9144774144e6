package argtree

import (
	"context"
	"fmt"
	"sync"
)

// Pending is a value that becomes available once. It is safe for concurrent
// use; the first Resolve wins.
type Pending[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewPending returns an unresolved Pending.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Resolved returns a Pending that is already resolved.
func Resolved[T any](value T, err error) *Pending[T] {
	p := NewPending[T]()
	p.Resolve(value, err)
	return p
}

// Go runs fn in a new goroutine and resolves the Pending with its result.
// A panic in fn resolves it with an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Pending[T] {
	p := NewPending[T]()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				var zero T
				p.Resolve(zero, fmt.Errorf("panic: %v", rec))
			}
		}()
		p.Resolve(fn(ctx))
	}()
	return p
}

// Resolve sets the result and reports whether this call was the first.
func (p *Pending[T]) Resolve(value T, err error) bool {
	first := false
	p.once.Do(func() {
		p.value, p.err = value, err
		close(p.done)
		first = true
	})
	return first
}

// Done is closed once the Pending is resolved.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Await blocks until the Pending resolves or ctx is done.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitValue implements Awaiter.
func (p *Pending[T]) AwaitValue(ctx context.Context) (any, error) {
	v, err := p.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}
