package core

import "context"

// parker wakes a goroutine blocked in BlockOn.
type parker struct {
	ch chan struct{}
}

func (p *parker) Wake() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// BlockOn polls fut on the calling goroutine until it completes or ctx is
// done. Called from inside a task, it first hands the worker over with
// MarkBlocking, so the pool keeps its parallelism.
func BlockOn[T any](ctx context.Context, fut Future[T]) (T, error) {
	var zero T
	if fut == nil {
		return zero, ErrNilFuture
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if currentWorker(ctx) != nil {
		MarkBlocking(ctx)
	}

	p := &parker{ch: make(chan struct{}, 1)}
	for {
		if v, ok := fut.Poll(ctx, p); ok {
			return v, nil
		}
		select {
		case <-p.ch:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
