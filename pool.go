package taskexecutor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Swind/go-task-executor/core"
)

// NewPool creates and starts a pool with the default configuration and the
// given number of workers.
func NewPool(workers int) (*Pool, error) {
	cfg := core.DefaultPoolConfig()
	cfg.WorkerCount = workers
	return core.NewPool(cfg)
}

// NewPoolWithConfig creates and starts a pool from cfg.
func NewPoolWithConfig(cfg PoolConfig) (*Pool, error) {
	return core.NewPool(cfg)
}

// StopGraceful drains p and waits up to timeout for it to stop. On timeout
// the shutdown is escalated to immediate and an error is returned after the
// pool has stopped.
func StopGraceful(p *Pool, timeout time.Duration) error {
	p.Shutdown(core.ShutdownGraceful)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		return nil
	}

	p.Shutdown(core.ShutdownImmediate)
	if err := p.Wait(context.Background()); err != nil {
		return err
	}
	return fmt.Errorf("shutdown graceful timeout after %v, remaining tasks cancelled", timeout)
}

// Stop shuts p down immediately and waits for it to stop.
func Stop(p *Pool) {
	p.Shutdown(core.ShutdownImmediate)
	_ = p.Wait(context.Background())
}

// =============================================================================
// Global Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *Pool
	globalMu   sync.Mutex
)

// InitGlobalPool initializes the global pool with the specified number of
// workers. Later calls are no-ops while a global pool exists.
func InitGlobalPool(workers int) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return nil // Already initialized
	}

	cfg := core.DefaultPoolConfig()
	cfg.ID = "global-pool"
	cfg.WorkerCount = workers
	p, err := core.NewPool(cfg)
	if err != nil {
		return err
	}
	globalPool = p
	return nil
}

// GetGlobalPool returns the global pool instance.
// It panics if InitGlobalPool has not been called.
func GetGlobalPool() *Pool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("GlobalPool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool stops the global pool immediately and waits for it.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		Stop(globalPool)
		globalPool = nil
	}
}

// Spawn submits fut to the global pool.
func Spawn[T any](ctx context.Context, fut Future[T]) (*Handle[T], error) {
	return core.Spawn(ctx, GetGlobalPool(), fut)
}

// SpawnFunc submits fn to the global pool.
func SpawnFunc[T any](ctx context.Context, fn func(ctx context.Context) T) (*Handle[T], error) {
	return core.SpawnFunc(ctx, GetGlobalPool(), fn)
}

// Go submits a plain task to the global pool.
func Go(ctx context.Context, task Task) (*Handle[struct{}], error) {
	return core.Go(ctx, GetGlobalPool(), task)
}

// SpawnOn submits fut to p.
func SpawnOn[T any](ctx context.Context, p *Pool, fut Future[T]) (*Handle[T], error) {
	return core.Spawn(ctx, p, fut)
}
