package core

import (
	"context"
	"fmt"
	"os"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during a poll.
// This allows custom panic handling, logging, and recovery strategies.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context of the panicked task (CurrentTaskID works on it)
	// - poolID: The ID of the pool where the panic occurred
	// - workerID: The ID of the worker that was polling the task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolID string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler reports panics through Logger, or to stderr when
// Logger is nil.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic value and stack trace.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolID string, workerID int, panicInfo any, stackTrace []byte) {
	taskID, _ := CurrentTaskID(ctx)
	if h.Logger == nil {
		fmt.Fprintf(os.Stderr, "[Worker %d @ %s] %s panic: %v\nStack trace:\n%s",
			workerID, poolID, taskID, panicInfo, stackTrace)
		return
	}
	h.Logger.Error("task panicked",
		F("pool", poolID),
		F("worker", workerID),
		F("task", taskID.String()),
		F("panic", fmt.Sprint(panicInfo)),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting executor metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from worker goroutines and the monitor; they should be
// non-blocking and fast to avoid impacting scheduling.
type Metrics interface {
	// RecordPollDuration records how long a single poll took.
	RecordPollDuration(poolID string, duration time.Duration)

	// RecordTaskPanic records that a poll panicked.
	RecordTaskPanic(poolID string, panicInfo any)

	// RecordQueueDepth records the number of queued tasks (injector plus
	// local queues). Called once per monitor sample.
	RecordQueueDepth(poolID string, depth int)

	// RecordTaskRejected records that a spawn was rejected (e.g., during shutdown).
	RecordTaskRejected(poolID string, reason string)

	// RecordSteal records a successful steal of n tasks from a sibling.
	RecordSteal(poolID string, n int)

	// RecordWorkerReplaced records that a blocked worker was replaced.
	RecordWorkerReplaced(poolID string, reason ReplacementReason)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordPollDuration(poolID string, duration time.Duration)    {}
func (m *NilMetrics) RecordTaskPanic(poolID string, panicInfo any)                {}
func (m *NilMetrics) RecordQueueDepth(poolID string, depth int)                   {}
func (m *NilMetrics) RecordTaskRejected(poolID string, reason string)             {}
func (m *NilMetrics) RecordSteal(poolID string, n int)                            {}
func (m *NilMetrics) RecordWorkerReplaced(poolID string, reason ReplacementReason) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a spawn is rejected. This happens once
// the pool has begun shutting down.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	// HandleRejectedTask is called when a spawn is rejected.
	//
	// Parameters:
	// - poolID: The ID of the pool
	// - reason: Why the task was rejected (e.g., "draining", "stopping")
	HandleRejectedTask(poolID string, reason string)
}

// DefaultRejectedTaskHandler logs rejected spawns at warn level through
// Logger, or to stderr when Logger is nil.
type DefaultRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolID string, reason string) {
	if h.Logger == nil {
		fmt.Fprintf(os.Stderr, "[Pool %s] Task rejected: %s\n", poolID, reason)
		return
	}
	h.Logger.Warn("task rejected", F("pool", poolID), F("reason", reason))
}
