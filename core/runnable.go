package core

import "context"

// Waker re-schedules a suspended task.
//
// Wake may be called from any goroutine at any time, including while the
// task is being polled. Multiple wakes before the next poll result in a
// single re-enqueue.
type Waker interface {
	Wake()
}

// Future is a computation a worker can poll.
//
// Poll is called with the task's context and its Waker. It returns
// (value, true) once the computation is finished. It returns (zero, false)
// when it cannot make progress yet; in that case it must arrange for w.Wake
// to be called when progress becomes possible, otherwise it is never polled
// again.
//
// Poll is never called concurrently for the same task.
type Future[T any] interface {
	Poll(ctx context.Context, w Waker) (T, bool)
}

// FutureFunc adapts a function to the Future interface.
type FutureFunc[T any] func(ctx context.Context, w Waker) (T, bool)

// Poll calls f(ctx, w).
func (f FutureFunc[T]) Poll(ctx context.Context, w Waker) (T, bool) {
	return f(ctx, w)
}

// Ready returns a future that runs fn on its first poll and completes with
// its result.
func Ready[T any](fn func(ctx context.Context) T) Future[T] {
	return FutureFunc[T](func(ctx context.Context, _ Waker) (T, bool) {
		return fn(ctx), true
	})
}

// FromTask returns a future that runs task on its first poll.
func FromTask(task Task) Future[struct{}] {
	return FutureFunc[struct{}](func(ctx context.Context, _ Waker) (struct{}, bool) {
		task(ctx)
		return struct{}{}, true
	})
}

// Yield returns a future that gives its worker back n times before
// completing. Each yield wakes itself, so the task goes back to a queue and
// other tasks get a chance to run.
func Yield(n int) Future[struct{}] {
	return &yieldFuture{remaining: n}
}

type yieldFuture struct {
	remaining int
}

func (y *yieldFuture) Poll(_ context.Context, w Waker) (struct{}, bool) {
	if y.remaining <= 0 {
		return struct{}{}, true
	}
	y.remaining--
	w.Wake()
	return struct{}{}, false
}
