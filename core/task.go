package core

import (
	"context"
	"strconv"
	"sync/atomic"
)

// Task is a plain unit of work (Closure). It completes on its first poll.
type Task func(ctx context.Context)

// =============================================================================
// TaskID
// =============================================================================

// TaskID identifies a spawned task. The zero value is never assigned.
type TaskID uint64

var taskIDCounter atomic.Uint64

// GenerateTaskID returns a new process-unique TaskID.
func GenerateTaskID() TaskID {
	return TaskID(taskIDCounter.Add(1))
}

// IsZero reports whether id is the unassigned zero value.
func (id TaskID) IsZero() bool {
	return id == 0
}

func (id TaskID) String() string {
	return "task-" + strconv.FormatUint(uint64(id), 10)
}

// =============================================================================
// Task state machine
// =============================================================================

// Task states. A task is held by exactly one queue while Scheduled and by
// exactly one worker while Running or Notified.
const (
	taskIdle      uint32 = iota // suspended, waiting for Wake
	taskScheduled               // sitting in a queue
	taskRunning                 // being polled
	taskNotified                // woken while being polled
	taskCompleted
)

type task struct {
	id    TaskID
	pool  *Pool
	state atomic.Uint32

	cancelled atomic.Bool

	// last is the worker that last polled the task. Wakes go back to it.
	last atomic.Pointer[worker]

	// poll polls the wrapped future once and delivers its value on completion.
	poll func(ctx context.Context, w Waker) bool
	// fail resolves the handle with err. Later resolutions are ignored.
	fail func(err error)

	scope  taskScope
	ctx    context.Context
	cancel context.CancelFunc
}

func newTask(ctx context.Context, p *Pool) *task {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &task{id: GenerateTaskID(), pool: p}
	t.scope.task = t
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.ctx = context.WithValue(base, taskScopeKey, &t.scope)
	t.cancel = cancel
	t.state.Store(taskScheduled)
	return t
}

// Wake implements Waker. Wakes are coalesced: a task that is already queued
// or already notified is left alone, and a task woken while it runs is
// re-queued by its worker once the poll returns.
func (t *task) Wake() {
	for {
		switch s := t.state.Load(); s {
		case taskIdle:
			if t.state.CompareAndSwap(s, taskScheduled) {
				t.pool.schedule(t)
				return
			}
		case taskRunning:
			if t.state.CompareAndSwap(s, taskNotified) {
				return
			}
		default:
			return
		}
	}
}

// finish marks the task completed and releases its pool accounting.
func (t *task) finish() {
	t.state.Store(taskCompleted)
	t.cancel()
	t.pool.taskFinished()
}

// abort resolves the task with err without polling it again.
func (t *task) abort(err error) {
	t.fail(err)
	t.finish()
}

// =============================================================================
// Context Helper
// =============================================================================

type taskScopeKeyType struct{}

var taskScopeKey taskScopeKeyType

// taskScope links a task's context to the worker currently polling it.
// worker is only set for the duration of a poll.
type taskScope struct {
	task   *task
	worker atomic.Pointer[worker]
}

func scopeFromContext(ctx context.Context) *taskScope {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(taskScopeKey).(*taskScope); ok {
		return v
	}
	return nil
}

// currentWorker returns the worker polling the task that owns ctx, or nil
// when ctx does not belong to a poll in progress.
func currentWorker(ctx context.Context) *worker {
	if s := scopeFromContext(ctx); s != nil {
		return s.worker.Load()
	}
	return nil
}

// CurrentTaskID returns the ID of the task whose context is ctx.
func CurrentTaskID(ctx context.Context) (TaskID, bool) {
	if s := scopeFromContext(ctx); s != nil {
		return s.task.id, true
	}
	return 0, false
}

// CurrentWorkerID returns the ID of the worker polling the task that owns ctx.
// It reports false outside of a poll.
func CurrentWorkerID(ctx context.Context) (int, bool) {
	if w := currentWorker(ctx); w != nil {
		return w.id, true
	}
	return -1, false
}

// MarkBlocking tells the pool that the task owning ctx is about to block its
// worker. The worker is replaced right away instead of after the blocking
// threshold, and exits once the current poll returns. It reports whether a
// replacement happened.
func MarkBlocking(ctx context.Context) bool {
	w := currentWorker(ctx)
	if w == nil {
		return false
	}
	return w.pool.replaceWorker(w, ReplacementMarkedBlocking)
}
