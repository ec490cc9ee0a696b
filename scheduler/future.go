package scheduler

import (
	"context"
	"sync"
)

// Future is the single result of a submitted task. It completes exactly once
// with either a value or an error.
type Future[T any] struct {
	val       T
	err       error
	done      chan struct{}
	callbacks []func(T, error)
	id        string
	mu        sync.Mutex
	completed bool
}

func newFuture[T any](id string) *Future[T] {
	return &Future[T]{id: id, done: make(chan struct{})}
}

// Completed returns a future that already holds val and err.
func Completed[T any](id string, val T, err error) *Future[T] {
	f := newFuture[T](id)
	f.complete(val, err)
	return f
}

// ID identifies the task for logs and tracing.
func (f *Future[T]) ID() string {
	return f.id
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done. A ctx error
// abandons the wait only; the task itself keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the result is available.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// OnComplete registers fn to receive the result. fn runs once, on the
// completing goroutine, or immediately if the future is already done.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn(f.val, f.err)
}

func (f *Future[T]) complete(val T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.val, f.err = val, err
	f.completed = true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(val, err)
	}
}
