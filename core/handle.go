package core

import (
	"context"
	"sync"
)

// Result is the outcome of a task.
type Result[T any] struct {
	Value T
	Err   error
}

// Handle is returned by Spawn. It resolves exactly once, with the task's
// value, a *PanicError, or ErrTaskCancelled.
//
// A Handle is itself a Future, so a task can await another task without
// blocking its worker.
type Handle[T any] struct {
	t    *task
	done chan struct{}

	mu      sync.Mutex
	settled bool
	result  Result[T]
	waiters []Waker
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// ID returns the ID of the task behind the handle.
func (h *Handle[T]) ID() TaskID {
	return h.t.id
}

// Done returns a channel closed when the handle resolves.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the task resolves or ctx is done.
// It must not be used inside a task; poll the handle instead.
func (h *Handle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		r := h.load()
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryResult returns the result if the handle has resolved.
func (h *Handle[T]) TryResult() (Result[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.settled
}

// Cancel requests cooperative cancellation. The handle resolves with
// ErrTaskCancelled immediately, the task's context is cancelled, and a task
// that is still queued is dropped without being polled. A poll already in
// progress is not interrupted. Cancel after completion is a no-op.
func (h *Handle[T]) Cancel() {
	if !h.t.cancelled.CompareAndSwap(false, true) {
		return
	}
	var zero T
	h.resolve(zero, ErrTaskCancelled)
	h.t.cancel()
	// Push an idle task through a queue so it is dropped and accounted for.
	h.t.Wake()
}

// Poll implements Future[Result[T]].
func (h *Handle[T]) Poll(_ context.Context, w Waker) (Result[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled {
		return h.result, true
	}
	h.waiters = append(h.waiters, w)
	return Result[T]{}, false
}

func (h *Handle[T]) load() Result[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

func (h *Handle[T]) resolve(v T, err error) {
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		return
	}
	h.settled = true
	h.result = Result[T]{Value: v, Err: err}
	waiters := h.waiters
	h.waiters = nil
	close(h.done)
	h.mu.Unlock()

	for _, w := range waiters {
		w.Wake()
	}
}
