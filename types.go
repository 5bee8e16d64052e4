package taskexecutor

import (
	"context"

	"github.com/Swind/go-task-executor/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskexecutor package for most use cases.

// Task is a plain unit of work (Closure)
type Task = core.Task

// TaskID identifies a spawned task
type TaskID = core.TaskID

// Pool is the work-stealing executor
type Pool = core.Pool

// PoolConfig configures a Pool
type PoolConfig = core.PoolConfig

// PoolStats is a point-in-time view of a Pool
type PoolStats = core.PoolStats

// ShutdownMode selects graceful or immediate shutdown
type ShutdownMode = core.ShutdownMode

// Waker re-schedules a suspended task
type Waker = core.Waker

// Future is a pollable computation
type Future[T any] = core.Future[T]

// FutureFunc adapts a function to Future
type FutureFunc[T any] = core.FutureFunc[T]

// Handle is the result handle of a spawned task
type Handle[T any] = core.Handle[T]

// Result is the outcome of a task
type Result[T any] = core.Result[T]

// Shutdown modes
const (
	ShutdownGraceful  = core.ShutdownGraceful
	ShutdownImmediate = core.ShutdownImmediate
)

// Errors
var (
	ErrPoolClosed    = core.ErrPoolClosed
	ErrTaskCancelled = core.ErrTaskCancelled
	ErrWaitOnWorker  = core.ErrWaitOnWorker
)

// DefaultPoolConfig returns a config sized to GOMAXPROCS
var DefaultPoolConfig = core.DefaultPoolConfig

// Context helpers
var (
	CurrentTaskID   = core.CurrentTaskID
	CurrentWorkerID = core.CurrentWorkerID
	MarkBlocking    = core.MarkBlocking
)

// Yield returns a future that gives its worker back n times
func Yield(n int) Future[struct{}] {
	return core.Yield(n)
}

// BlockOn polls fut on the calling goroutine until it completes
func BlockOn[T any](ctx context.Context, fut Future[T]) (T, error) {
	return core.BlockOn(ctx, fut)
}
