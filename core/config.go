package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PoolConfig: Configuration for Pool
// =============================================================================

const (
	DefaultBlockingThreshold   = 100 * time.Millisecond
	DefaultSamplingInterval    = 10 * time.Millisecond
	DefaultStealBatch          = 32
	DefaultStealRetries        = 4
	DefaultSearchRounds        = 3
	DefaultBackoffMax          = 50 * time.Microsecond
	DefaultGlobalQueueInterval = 61
)

// PoolConfig holds configuration options for a Pool.
// Zero values are replaced by defaults; handlers default when nil.
type PoolConfig struct {
	// ID names the pool in logs and metrics. Defaults to "pool-<uuid>".
	ID string

	// WorkerCount is the target number of concurrently progressing workers.
	// DefaultPoolConfig sets it to runtime.GOMAXPROCS(0); NewPool rejects
	// values below one.
	WorkerCount int

	// BlockingThreshold is how long a single poll may run before its worker
	// is considered blocked and replaced.
	BlockingThreshold time.Duration

	// SamplingInterval is the monitor's heartbeat sampling cadence.
	SamplingInterval time.Duration

	// LocalQueueCapacity bounds each worker's local queue (rounded up to a
	// power of two). Overflow spills to the injector.
	LocalQueueCapacity int

	// StealBatch caps how many tasks one steal or injector pop may move.
	StealBatch int

	// StealRetries bounds TryLock attempts on a contended victim queue.
	StealRetries int

	// SearchRounds is how many local/injector/steal passes an idle worker
	// makes before parking.
	SearchRounds int

	// BackoffMax is the upper bound of the randomized sleep between
	// search rounds.
	BackoffMax time.Duration

	// GlobalQueueInterval makes a worker check the injector before its own
	// queue every that many local runs, so injected tasks are not starved.
	GlobalQueueInterval int

	// LockOSThread wires every worker goroutine to its own OS thread.
	LockOSThread bool

	// Logger receives lifecycle, replacement and panic events. Defaults to DefaultLogger.
	Logger Logger

	// PanicHandler is called when a poll panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record executor metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a spawn is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultPoolConfig returns a config sized to GOMAXPROCS with default handlers.
func DefaultPoolConfig() PoolConfig {
	logger := NewDefaultLogger()
	return PoolConfig{
		WorkerCount:         runtime.GOMAXPROCS(0),
		BlockingThreshold:   DefaultBlockingThreshold,
		SamplingInterval:    DefaultSamplingInterval,
		LocalQueueCapacity:  defaultLocalQueueCap,
		StealBatch:          DefaultStealBatch,
		StealRetries:        DefaultStealRetries,
		SearchRounds:        DefaultSearchRounds,
		BackoffMax:          DefaultBackoffMax,
		GlobalQueueInterval: DefaultGlobalQueueInterval,
		Logger:              logger,
		PanicHandler:        &DefaultPanicHandler{Logger: logger},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{Logger: logger},
	}
}

// normalize validates c and fills defaults in place.
func (c *PoolConfig) normalize() error {
	switch {
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, c.WorkerCount)
	case c.BlockingThreshold < 0:
		return fmt.Errorf("%w: %v", ErrInvalidBlockingThreshold, c.BlockingThreshold)
	case c.SamplingInterval < 0:
		return fmt.Errorf("%w: %v", ErrInvalidSamplingInterval, c.SamplingInterval)
	case c.LocalQueueCapacity < 0:
		return fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, c.LocalQueueCapacity)
	}

	def := PoolConfig{
		BlockingThreshold:   DefaultBlockingThreshold,
		SamplingInterval:    DefaultSamplingInterval,
		LocalQueueCapacity:  defaultLocalQueueCap,
		StealBatch:          DefaultStealBatch,
		StealRetries:        DefaultStealRetries,
		SearchRounds:        DefaultSearchRounds,
		BackoffMax:          DefaultBackoffMax,
		GlobalQueueInterval: DefaultGlobalQueueInterval,
		Metrics:             &NilMetrics{},
	}
	if c.ID == "" {
		c.ID = "pool-" + uuid.NewString()
	}
	if c.BlockingThreshold == 0 {
		c.BlockingThreshold = def.BlockingThreshold
	}
	if c.SamplingInterval == 0 {
		c.SamplingInterval = def.SamplingInterval
	}
	if c.SamplingInterval > c.BlockingThreshold {
		return fmt.Errorf("%w: %v exceeds blocking threshold %v",
			ErrInvalidSamplingInterval, c.SamplingInterval, c.BlockingThreshold)
	}
	if c.LocalQueueCapacity == 0 {
		c.LocalQueueCapacity = def.LocalQueueCapacity
	}
	if c.StealBatch <= 0 {
		c.StealBatch = def.StealBatch
	}
	if c.StealRetries <= 0 {
		c.StealRetries = def.StealRetries
	}
	if c.SearchRounds <= 0 {
		c.SearchRounds = def.SearchRounds
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = def.BackoffMax
	}
	if c.GlobalQueueInterval <= 0 {
		c.GlobalQueueInterval = def.GlobalQueueInterval
	}
	if c.Logger == nil {
		c.Logger = NewDefaultLogger()
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &DefaultPanicHandler{Logger: c.Logger}
	}
	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}
	if c.RejectedTaskHandler == nil {
		c.RejectedTaskHandler = &DefaultRejectedTaskHandler{Logger: c.Logger}
	}
	return nil
}

// thresholdSamples is the number of unchanged consecutive heartbeat samples
// after which a running worker is considered blocked.
func (c *PoolConfig) thresholdSamples() int {
	n := int((c.BlockingThreshold + c.SamplingInterval - 1) / c.SamplingInterval)
	if n < 1 {
		n = 1
	}
	return n
}
