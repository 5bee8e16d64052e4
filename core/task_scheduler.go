package core

import "context"

// =============================================================================
// Submission and wake paths
// =============================================================================

// workerFor returns the worker of this pool polling the task that owns ctx.
func (p *Pool) workerFor(ctx context.Context) *worker {
	if w := currentWorker(ctx); w != nil && w.pool == p {
		return w
	}
	return nil
}

// submit queues a freshly spawned task. Spawns from inside a poll go to the
// polling worker; everything else goes to the injector.
//
// The live count is raised before the state is read so a concurrent
// graceful shutdown cannot finish between the check and the push.
func (p *Pool) submit(ctx context.Context, t *task) error {
	p.live.Add(1)

	w := p.workerFor(ctx)
	state := p.state.Load()
	if state >= poolStopping || (w == nil && state >= poolDraining) {
		reason := "draining"
		if state >= poolStopping {
			reason = "stopping"
		}
		p.rejectedTaskHandler.HandleRejectedTask(p.id, reason)
		p.metrics.RecordTaskRejected(p.id, reason)
		p.taskFinished()
		return ErrPoolClosed
	}

	if w != nil {
		w.spawnLocal(t)
		return nil
	}
	p.inject(t)
	p.notifyWork()
	return nil
}

// schedule re-queues a task whose waker fired. It goes back to the local
// queue of the worker that last polled it, where siblings can still steal
// it, or to the injector when that worker is gone.
func (p *Pool) schedule(t *task) {
	if w := t.last.Load(); w != nil && w.wakeLocal(t) {
		return
	}
	p.inject(t)
	p.notifyWork()
}

// inject pushes tasks onto the injector. Once the pool is stopping nobody
// will pop them, so they are cancelled right away.
func (p *Pool) inject(tasks ...*task) {
	if len(tasks) == 1 {
		p.inj.push(tasks[0])
	} else {
		p.inj.pushBatch(tasks)
	}
	if p.state.Load() >= poolStopping {
		p.drainQueues()
	}
}

// notifyWork wakes one parked worker unless a worker is already searching;
// that worker will find the new task or wake someone else when it stops.
func (p *Pool) notifyWork() {
	if p.searching.Load() == 0 && p.idle.len() > 0 {
		p.wakeOne()
	}
}

func (p *Pool) wakeOne() bool {
	w := p.idle.pop()
	if w == nil {
		return false
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (p *Pool) wakeAll() {
	for _, w := range p.idle.popAll() {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// hasQueuedWork reports whether any task is waiting in the injector or a
// stealable local queue.
func (p *Pool) hasQueuedWork() bool {
	if p.inj.len() > 0 {
		return true
	}
	for _, w := range p.registry.snapshot() {
		if w.local.len() > 0 {
			return true
		}
	}
	return false
}

// taskFinished drops one live task. The last one out of a draining pool
// starts the stop.
func (p *Pool) taskFinished() {
	if p.live.Add(-1) == 0 && p.state.Load() == poolDraining {
		p.beginStop()
	}
}

// drainQueues cancels every queued task. Cancelling resolves handles, which
// may wake tasks back into the injector, so it loops until the injector
// stays empty. Concurrent callers leave the work to the one in progress.
func (p *Pool) drainQueues() {
	for {
		if !p.draining.CompareAndSwap(false, true) {
			return
		}
		for _, t := range p.inj.drain() {
			t.abort(ErrTaskCancelled)
		}
		for _, w := range p.registry.snapshot() {
			for _, t := range w.takeAll() {
				t.abort(ErrTaskCancelled)
			}
		}
		p.draining.Store(false)
		if p.inj.len() == 0 {
			return
		}
	}
}
