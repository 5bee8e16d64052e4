package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Pool lifecycle states. The state only moves forward.
const (
	poolRunning  uint32 = iota
	poolDraining        // graceful shutdown: no external spawns, waiting for live tasks
	poolStopping        // workers retire after their current poll
	poolStopped
)

// ShutdownMode selects how Pool.Shutdown treats outstanding work.
type ShutdownMode int

const (
	// ShutdownGraceful rejects new external spawns and lets queued, running
	// and suspended tasks finish, including the tasks they spawn.
	ShutdownGraceful ShutdownMode = iota
	// ShutdownImmediate retires workers after their current poll and
	// cancels every queued task.
	ShutdownImmediate
)

func (m ShutdownMode) String() string {
	switch m {
	case ShutdownGraceful:
		return "graceful"
	case ShutdownImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Pool is a work-stealing executor with a fixed number of progressing
// workers. A monitor replaces workers that block inside a poll, so blocked
// workers do not count against the parallelism.
type Pool struct {
	id  string
	cfg PoolConfig

	logger              Logger
	panicHandler        PanicHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler

	inj      *injector
	registry registry
	idle     idleSet
	delay    *DelayManager
	history  *replacementHistory

	state     atomic.Uint32
	_         cpu.CacheLinePad
	live      atomic.Int64
	_         cpu.CacheLinePad
	searching atomic.Int32
	active    atomic.Int32
	retiring  atomic.Int32
	stolen    atomic.Int64
	replaced  atomic.Int64
	workerIDs atomic.Int64
	draining  atomic.Bool

	activeWG  sync.WaitGroup // registered workers
	monitorWG sync.WaitGroup
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
}

// NewPool validates cfg and starts its workers and monitor.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	p := &Pool{
		id:                  cfg.ID,
		cfg:                 cfg,
		logger:              cfg.Logger,
		panicHandler:        cfg.PanicHandler,
		metrics:             cfg.Metrics,
		rejectedTaskHandler: cfg.RejectedTaskHandler,
		inj:                 newInjector(),
		delay:               NewDelayManager(),
		history:             newReplacementHistory(defaultReplacementHistoryCapacity),
		stopCh:              make(chan struct{}),
		done:                make(chan struct{}),
	}

	workers := make([]*worker, cfg.WorkerCount)
	for i := range workers {
		workers[i] = p.newWorker()
		p.registry.add(workers[i])
	}
	p.activeWG.Add(len(workers))
	for _, w := range workers {
		go w.run()
	}

	p.monitorWG.Add(1)
	go p.monitor()

	p.logger.Info("pool started",
		F("pool", p.id),
		F("workers", cfg.WorkerCount),
		F("blocking_threshold", cfg.BlockingThreshold.String()),
		F("sampling_interval", cfg.SamplingInterval.String()),
	)
	return p, nil
}

func (p *Pool) newWorker() *worker {
	return newWorker(p, int(p.workerIDs.Add(1)-1))
}

// ID returns the ID of the pool
func (p *Pool) ID() string {
	return p.id
}

// WorkerCount returns the target parallelism
func (p *Pool) WorkerCount() int {
	return p.cfg.WorkerCount
}

// IsRunning reports whether the pool still accepts external spawns.
func (p *Pool) IsRunning() bool {
	return p.state.Load() == poolRunning
}

// Shutdown begins shutting the pool down and returns immediately; use Wait
// or Done to learn when it has stopped. It is idempotent, safe to call from
// inside a task, and an immediate shutdown escalates a graceful one.
func (p *Pool) Shutdown(mode ShutdownMode) {
	if mode == ShutdownImmediate {
		p.beginStop()
		return
	}

	if p.state.CompareAndSwap(poolRunning, poolDraining) {
		p.logger.Info("pool draining", F("pool", p.id), F("live_tasks", p.live.Load()))
	}
	if p.live.Load() == 0 && p.state.Load() == poolDraining {
		p.beginStop()
	}
}

// Wait blocks until the pool has stopped or ctx is done. It returns
// ErrWaitOnWorker when ctx belongs to a task polled by this pool.
func (p *Pool) Wait(ctx context.Context) error {
	if p.workerFor(ctx) != nil {
		return ErrWaitOnWorker
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the pool has stopped.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

func (p *Pool) beginStop() {
	p.stopOnce.Do(func() {
		p.state.Store(poolStopping)
		close(p.stopCh)
		p.logger.Info("pool stopping",
			F("pool", p.id),
			F("live_tasks", p.live.Load()),
			F("queued", p.inj.len()),
		)
		p.wakeAll()
		go p.finishStop()
	})
}

// finishStop waits for every registered worker and the monitor, then
// cancels whatever is left. Replaced workers still stuck in a poll are not
// waited for; they cancel their own leftovers when the poll returns.
func (p *Pool) finishStop() {
	p.activeWG.Wait()
	p.monitorWG.Wait()

	// Pending timers fire so their tasks are queued and cancelled below.
	p.delay.Stop()
	p.drainQueues()

	p.state.Store(poolStopped)
	p.logger.Info("pool stopped",
		F("pool", p.id),
		F("replaced", p.replaced.Load()),
		F("stolen", p.stolen.Load()),
	)
	close(p.done)
}

// Stats returns a point-in-time view of the pool. Counters are read
// without a common lock, so they need not add up exactly.
func (p *Pool) Stats() PoolStats {
	workers := p.registry.snapshot()
	stats := PoolStats{
		ID:         p.id,
		Workers:    p.cfg.WorkerCount,
		Registered: len(workers),
		Parked:     p.idle.len(),
		Searching:  int(p.searching.Load()),
		Retiring:   int(p.retiring.Load()),
		Injected:   p.inj.len(),
		Active:     int(p.active.Load()),
		Delayed:    p.delay.TaskCount(),
		LiveTasks:  p.live.Load(),
		Stolen:     p.stolen.Load(),
		Replaced:   p.replaced.Load(),
		Running:    p.state.Load() == poolRunning,
	}
	for _, w := range workers {
		stats.Queued += w.local.len()
		if w.next.Load() != nil {
			stats.Queued++
		}
	}
	return stats
}

// RecentReplacements returns up to limit worker replacements, newest first.
// limit <= 0 returns everything retained.
func (p *Pool) RecentReplacements(limit int) []ReplacementRecord {
	return p.history.Recent(limit)
}

// Sleep returns a future that completes once d has elapsed, measured from
// its first poll.
func (p *Pool) Sleep(d time.Duration) Future[struct{}] {
	return &sleepFuture{delay: p.delay, d: d}
}
