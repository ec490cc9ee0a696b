// Package scheduler runs compute-bound tasks on a bounded set of workers and
// delivers each result through a Future.
//
// Submit never blocks the caller. A task waits for a free worker slot, then
// owns that slot until it returns; there is no yielding inside a task.
// No ordering is guaranteed between independently submitted tasks.
package scheduler

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wippyai/script-runtime/errors"
)

// Scheduler admits at most Workers tasks at a time.
type Scheduler struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	workers int
	mu      sync.RWMutex
	closed  bool
}

// New creates a scheduler with the given number of workers.
// Zero or negative selects GOMAXPROCS.
func New(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scheduler{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// Workers returns the worker limit.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Submit schedules fn and returns its future. If ctx is done before a worker
// slot frees up, the future fails with ctx.Err() and fn never runs. After
// Close, the future fails with errors.ErrClosed.
func Submit[T any](s *Scheduler, ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T](uuid.NewString())

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		var zero T
		f.complete(zero, errors.Closed("scheduler"))
		return f
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	go func() {
		defer s.wg.Done()

		if err := s.sem.Acquire(ctx, 1); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		defer s.sem.Release(1)

		val, err := fn(withTaskID(ctx, f.id))
		f.complete(val, err)
	}()

	return f
}

// Close stops accepting tasks and waits for in-flight tasks or ctx.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type taskIDKey struct{}

func withTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskID returns the id of the task running with ctx, or "" outside a task.
func TaskID(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}
