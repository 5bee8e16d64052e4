package core

import (
	"context"
	"time"
)

// Spawn submits fut to p and returns its handle.
//
// When ctx belongs to a task being polled by p, the new task is queued on
// that worker; otherwise it goes to the pool's injector. The task's own
// context inherits ctx's values but not its cancellation; it is cancelled
// by Handle.Cancel, by an immediate shutdown and when the task completes.
//
// Once shutdown has begun Spawn fails with ErrPoolClosed, except that tasks
// of a gracefully draining pool may still spawn children.
func Spawn[T any](ctx context.Context, p *Pool, fut Future[T]) (*Handle[T], error) {
	if fut == nil {
		return nil, ErrNilFuture
	}
	if ctx == nil {
		ctx = context.Background()
	}

	h, t := bindFuture(ctx, p, fut)
	if err := p.submit(ctx, t); err != nil {
		t.cancel()
		return nil, err
	}
	return h, nil
}

// bindFuture wraps fut in a task of p and the handle it resolves.
func bindFuture[T any](ctx context.Context, p *Pool, fut Future[T]) (*Handle[T], *task) {
	h := newHandle[T]()
	t := newTask(ctx, p)
	h.t = t
	t.poll = func(ctx context.Context, w Waker) bool {
		v, ok := fut.Poll(ctx, w)
		if ok {
			h.resolve(v, nil)
		}
		return ok
	}
	t.fail = func(err error) {
		var zero T
		h.resolve(zero, err)
	}
	return h, t
}

// SpawnFunc spawns fn as a task that completes on its first poll.
func SpawnFunc[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) T) (*Handle[T], error) {
	if fn == nil {
		return nil, ErrNilFuture
	}
	return Spawn(ctx, p, Ready(fn))
}

// Go spawns a plain task.
func Go(ctx context.Context, p *Pool, task Task) (*Handle[struct{}], error) {
	if task == nil {
		return nil, ErrNilFuture
	}
	return Spawn(ctx, p, FromTask(task))
}

// SpawnAfter spawns fut and polls it for the first time once delay has
// elapsed. The task counts as live while it waits.
func SpawnAfter[T any](ctx context.Context, p *Pool, delay time.Duration, fut Future[T]) (*Handle[T], error) {
	if fut == nil {
		return nil, ErrNilFuture
	}
	return Spawn(ctx, p, Future[T](&afterFuture[T]{first: p.Sleep(delay), next: fut}))
}
