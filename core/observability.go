package core

import "time"

// ReplacementReason says why a worker was replaced.
type ReplacementReason string

const (
	// ReplacementStalled: the monitor saw no heartbeat progress for the
	// blocking threshold.
	ReplacementStalled ReplacementReason = "stalled"
	// ReplacementMarkedBlocking: the running task called MarkBlocking.
	ReplacementMarkedBlocking ReplacementReason = "marked_blocking"
)

// ReplacementRecord captures one worker replacement.
type ReplacementRecord struct {
	PoolID     string
	OldWorker  int
	NewWorker  int
	Slot       int
	Reason     ReplacementReason
	TaskID     TaskID // task the old worker was stuck in, zero if unknown
	Moved      int    // local tasks moved to the injector
	ReplacedAt time.Time
}

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	ID         string
	Workers    int   // target parallelism
	Registered int   // workers currently in the registry
	Parked     int   // registered workers blocked waiting for work
	Searching  int   // workers looking for work
	Retiring   int   // replaced workers still finishing a stuck poll
	Queued     int   // tasks in local queues and next slots
	Injected   int   // tasks in the injector
	Active     int   // polls in progress
	Delayed    int   // pending timers
	LiveTasks  int64 // spawned and not yet completed
	Stolen     int64 // tasks moved by steals since start
	Replaced   int64 // worker replacements since start
	Running    bool
}
