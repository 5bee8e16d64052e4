package core

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Worker statuses. Only the owning goroutine changes its status, except for
// Running -> Retiring, which replaceWorker performs with a CAS.
const (
	workerSearching uint32 = iota
	workerRunning
	workerParked
	workerRetiring
	workerRetired
)

func workerStatusName(s uint32) string {
	switch s {
	case workerSearching:
		return "searching"
	case workerRunning:
		return "running"
	case workerParked:
		return "parked"
	case workerRetiring:
		return "retiring"
	case workerRetired:
		return "retired"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

type worker struct {
	id    int
	pool  *Pool
	local *localQueue

	// next holds the task spawned most recently by this worker's poll. It is
	// run before anything in local and is never stolen.
	next atomic.Pointer[task]

	// wake carries at most one token, sent by whoever removes the worker
	// from the idle set.
	wake chan struct{}

	_         cpu.CacheLinePad
	heartbeat atomic.Uint64
	status    atomic.Uint32
	current   atomic.Pointer[task]
	_         cpu.CacheLinePad

	// owner-only
	runs int
}

func newWorker(p *Pool, id int) *worker {
	return &worker{
		id:    id,
		pool:  p,
		local: newLocalQueue(p.cfg.LocalQueueCapacity),
		wake:  make(chan struct{}, 1),
	}
}

// run is the scheduling loop.
func (w *worker) run() {
	if w.pool.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer w.exit()

	for {
		t := w.findWork()
		if t == nil {
			return
		}
		if !w.runTask(t) {
			return
		}
	}
}

func (w *worker) shouldExit() bool {
	return w.pool.state.Load() >= poolStopping || w.status.Load() == workerRetiring
}

// findWork returns the next task to poll, parking while there is none.
// It returns nil when the worker must exit.
func (w *worker) findWork() *task {
	p := w.pool
	for {
		if w.shouldExit() {
			return nil
		}
		if t := w.nextLocal(); t != nil {
			return t
		}

		p.searching.Add(1)
		t := w.search()
		w.endSearch(t != nil)
		if t != nil {
			return t
		}

		w.park()
	}
}

// nextLocal returns work available without searching. Every
// GlobalQueueInterval runs the injector is checked first.
func (w *worker) nextLocal() *task {
	p := w.pool
	if w.runs >= p.cfg.GlobalQueueInterval {
		w.runs = 0
		if t := p.inj.pop(); t != nil {
			return t
		}
	}
	if t := w.next.Swap(nil); t != nil {
		return t
	}
	return w.local.pop()
}

// search makes up to SearchRounds passes over the local queue, the injector
// and every sibling, backing off between rounds.
func (w *worker) search() *task {
	p := w.pool
	for round := range p.cfg.SearchRounds {
		w.heartbeat.Add(1)
		if t := w.local.pop(); t != nil {
			return t
		}
		if t := w.popInjector(); t != nil {
			return t
		}
		if t := w.stealSibling(); t != nil {
			return t
		}
		if w.shouldExit() {
			return nil
		}
		if round == 0 {
			runtime.Gosched()
		} else {
			time.Sleep(rand.N(p.cfg.BackoffMax))
		}
	}
	return nil
}

// endSearch leaves the searching state. The last searcher to find work
// wakes a parked worker if more work is queued, so a burst of spawns is
// spread over the pool.
func (w *worker) endSearch(found bool) {
	p := w.pool
	if p.searching.Add(-1) == 0 && found && p.hasQueuedWork() {
		p.wakeOne()
	}
}

// popInjector takes a fair share of the injector, runs the first task and
// keeps the rest locally.
func (w *worker) popInjector() *task {
	p := w.pool
	n := p.inj.len()
	if n == 0 {
		return nil
	}
	if workers := p.registry.len(); workers > 0 {
		n = n/workers + 1
	}
	n = min(n, p.cfg.StealBatch, w.local.capacity()/2)
	batch := p.inj.popBatch(n)
	if len(batch) == 0 {
		return nil
	}
	for _, t := range batch[1:] {
		w.pushLocal(t)
	}
	return batch[0]
}

// stealSibling visits siblings starting at a random index and takes half
// of the first non-empty local queue it can lock.
func (w *worker) stealSibling() *task {
	p := w.pool
	workers := p.registry.snapshot()
	if len(workers) < 2 {
		return nil
	}
	start := rand.IntN(len(workers))
	for i := range workers {
		v := workers[(start+i)%len(workers)]
		if v == w || v.status.Load() >= workerRetiring {
			continue
		}
		batch := v.local.steal(p.cfg.StealBatch, p.cfg.StealRetries)
		if len(batch) == 0 {
			continue
		}
		for _, t := range batch[1:] {
			w.pushLocal(t)
		}
		p.stolen.Add(int64(len(batch)))
		p.metrics.RecordSteal(p.id, len(batch))
		return batch[0]
	}
	return nil
}

// park blocks until another goroutine hands the worker a wake token.
// The worker registers first and re-checks for work afterwards, so a
// producer either sees it parked or the worker sees the producer's task.
func (w *worker) park() {
	p := w.pool
	w.status.Store(workerParked)
	p.idle.push(w)

	if w.next.Load() != nil || p.hasQueuedWork() || w.shouldExit() {
		if !p.idle.remove(w) {
			<-w.wake
		}
		w.status.Store(workerSearching)
		return
	}

	p.logger.Debug("worker parked", F("pool", p.id), F("worker", w.id))
	<-w.wake
	w.status.Store(workerSearching)
}

// runTask polls t once. It returns false when the worker must exit.
func (w *worker) runTask(t *task) bool {
	p := w.pool
	if p.state.Load() >= poolStopping {
		t.abort(ErrTaskCancelled)
		return false
	}

	// Cancel sets the flag before it wakes. Checking after the store means
	// either the check sees the flag or Cancel's wake sees Running.
	t.state.Store(taskRunning)
	if t.cancelled.Load() {
		t.abort(ErrTaskCancelled)
		return true
	}

	w.runs++
	t.last.Store(w)
	w.current.Store(t)
	t.scope.worker.Store(w)
	w.status.Store(workerRunning)
	p.active.Add(1)

	start := time.Now()
	ready := w.poll(t)
	p.metrics.RecordPollDuration(p.id, time.Since(start))

	p.active.Add(-1)
	t.scope.worker.Store(nil)
	w.current.Store(nil)
	w.heartbeat.Add(1)
	keep := w.status.CompareAndSwap(workerRunning, workerSearching)

	if ready {
		t.finish()
		return keep
	}

	for {
		switch t.state.Load() {
		case taskRunning:
			if t.state.CompareAndSwap(taskRunning, taskIdle) {
				return keep
			}
		case taskNotified:
			t.state.Store(taskScheduled)
			w.requeue(t)
			return keep
		default:
			return keep
		}
	}
}

// poll runs one poll of t, turning a panic into a *PanicError result.
func (w *worker) poll(t *task) (ready bool) {
	p := w.pool
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			ready = true
			t.fail(&PanicError{TaskID: t.id, Value: r, Stack: stack})
			p.metrics.RecordTaskPanic(p.id, r)
			p.panicHandler.HandlePanic(t.ctx, p.id, w.id, r, stack)
		}
	}()
	return t.poll(t.ctx, t)
}

// spawnLocal queues a task spawned by this worker's current poll. The
// caller may be another goroutine holding the task's ctx, so the poll can
// end at any point; next is only used while w is still running.
func (w *worker) spawnLocal(t *task) {
	p := w.pool
	if w.status.Load() != workerRunning {
		p.inject(t)
		p.notifyWork()
		return
	}
	if prev := w.next.Swap(t); prev != nil {
		w.pushLocal(prev)
		p.notifyWork()
	}
	// w may have left the poll since the check. park looks at next after
	// publishing Parked, so one of the two sides moves the task.
	if w.status.Load() != workerRunning {
		if t := w.next.Swap(nil); t != nil {
			p.inject(t)
			p.notifyWork()
		}
	}
}

// wakeLocal queues a woken task on w, the worker that last polled it. It
// reports false when w is retiring, leaving the task to the caller.
func (w *worker) wakeLocal(t *task) bool {
	p := w.pool
	if w.status.Load() >= workerRetiring || !w.local.push(t) {
		return false
	}
	// exit and replaceWorker drain local after publishing the status, so a
	// push that raced with them is found here.
	if w.status.Load() >= workerRetiring {
		if moved := w.local.drain(); len(moved) > 0 {
			p.inject(moved...)
		}
	}
	p.notifyWork()
	return true
}

// requeue puts a task that was woken during its own poll back at the front
// of the local queue.
func (w *worker) requeue(t *task) {
	p := w.pool
	if w.status.Load() < workerRetiring && w.local.pushFront(t) {
		p.notifyWork()
		return
	}
	p.inject(t)
	p.notifyWork()
}

// pushLocal queues t at the back of the local queue. When the queue is full
// half of it moves to the injector together with t. A retiring worker sends
// everything to the injector.
func (w *worker) pushLocal(t *task) {
	p := w.pool
	if w.status.Load() >= workerRetiring {
		p.inject(t)
		return
	}
	if w.local.push(t) {
		return
	}
	batch := append(w.local.popFront(w.local.capacity()/2), t)
	p.inject(batch...)
}

// takeAll removes everything queued on w.
func (w *worker) takeAll() []*task {
	tasks := w.local.drain()
	if t := w.next.Swap(nil); t != nil {
		tasks = append(tasks, t)
	}
	return tasks
}

func (w *worker) exit() {
	p := w.pool
	prev := w.status.Swap(workerRetired)

	if moved := w.takeAll(); len(moved) > 0 {
		p.inject(moved...)
		p.notifyWork()
	}
	p.registry.remove(w)

	if prev == workerRetiring {
		p.retiring.Add(-1)
		p.logger.Debug("replaced worker exited", F("pool", p.id), F("worker", w.id))
		return
	}
	p.logger.Debug("worker exited", F("pool", p.id), F("worker", w.id))
	p.activeWG.Done()
}
