package core

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolClosed is returned by Spawn once shutdown has begun.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrTaskCancelled resolves the handle of a task that was cancelled,
	// either through Handle.Cancel or by an immediate shutdown.
	ErrTaskCancelled = errors.New("task cancelled")

	// ErrWaitOnWorker is returned by Pool.Wait when called from a task polled
	// by the same pool, which would otherwise wait for itself.
	ErrWaitOnWorker = errors.New("pool: wait called from one of its own workers")

	// ErrNilFuture is returned when spawning a nil future or task.
	ErrNilFuture = errors.New("nil future")

	// ErrInvalidWorkerCount is returned by NewPool for a WorkerCount below one.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidBlockingThreshold is returned by NewPool for a negative BlockingThreshold.
	ErrInvalidBlockingThreshold = errors.New("invalid blocking threshold")

	// ErrInvalidSamplingInterval is returned by NewPool for a negative
	// SamplingInterval or one longer than the blocking threshold.
	ErrInvalidSamplingInterval = errors.New("invalid sampling interval")

	// ErrInvalidQueueCapacity is returned by NewPool for a negative LocalQueueCapacity.
	ErrInvalidQueueCapacity = errors.New("invalid local queue capacity")
)

// PanicError resolves the handle of a task whose poll panicked.
type PanicError struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.TaskID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
