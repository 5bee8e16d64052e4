package taskexecutor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-task-executor/core"
	"golang.org/x/sync/errgroup"
)

func quietConfig(workers int) PoolConfig {
	cfg := DefaultPoolConfig()
	cfg.WorkerCount = workers
	cfg.Logger = core.NewNoOpLogger()
	cfg.PanicHandler = nil
	cfg.RejectedTaskHandler = nil
	return cfg
}

// TestPool_Lifecycle verifies the root constructors and StopGraceful
// Given: A pool created with NewPool
// When: It is queried and stopped gracefully
// Then: It reports its workers while running and stops without error
func TestPool_Lifecycle(t *testing.T) {
	// Arrange
	pool, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	// Assert running state
	if pool.ID() == "" {
		t.Error("pool ID should default to a generated value")
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after NewPool")
	}
	if pool.WorkerCount() != 2 {
		t.Errorf("WorkerCount = %d, want 2", pool.WorkerCount())
	}

	// Act
	if err := StopGraceful(pool, time.Second); err != nil {
		t.Fatalf("StopGraceful failed: %v", err)
	}

	// Assert
	if pool.IsRunning() {
		t.Error("pool should not be running after StopGraceful")
	}
	select {
	case <-pool.Done():
	default:
		t.Error("Done should be closed after StopGraceful returns")
	}
}

// TestNewPool_RejectsZeroWorkers verifies worker count validation
func TestNewPool_RejectsZeroWorkers(t *testing.T) {
	_, err := NewPool(0)
	if !errors.Is(err, core.ErrInvalidWorkerCount) {
		t.Fatalf("NewPool(0) error = %v, want ErrInvalidWorkerCount", err)
	}
}

// TestStopGraceful_RunsQueuedTasks verifies graceful drain
// Given: A single-worker pool with 50 queued tasks
// When: StopGraceful is called before they finish
// Then: Every task runs and new external spawns are rejected
func TestStopGraceful_RunsQueuedTasks(t *testing.T) {
	// Arrange
	pool, err := NewPoolWithConfig(quietConfig(1))
	if err != nil {
		t.Fatalf("NewPoolWithConfig failed: %v", err)
	}
	var ran atomic.Int32
	for range 50 {
		if _, err := core.Go(context.Background(), pool, func(context.Context) {
			time.Sleep(100 * time.Microsecond)
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Go failed: %v", err)
		}
	}

	// Act
	err = StopGraceful(pool, 5*time.Second)

	// Assert
	if err != nil {
		t.Fatalf("StopGraceful failed: %v", err)
	}
	if n := ran.Load(); n != 50 {
		t.Errorf("ran = %d, want 50", n)
	}
	if _, err := core.Go(context.Background(), pool, func(context.Context) {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("spawn after stop error = %v, want ErrPoolClosed", err)
	}
}

// TestStopGraceful_TimeoutEscalates verifies the escalation path
// Given: A pool with a task suspended forever and a queued follower
// When: StopGraceful times out
// Then: It returns a timeout error, the pool stops and queued work is cancelled
func TestStopGraceful_TimeoutEscalates(t *testing.T) {
	// Arrange
	pool, err := NewPoolWithConfig(quietConfig(1))
	if err != nil {
		t.Fatalf("NewPoolWithConfig failed: %v", err)
	}
	forever := FutureFunc[struct{}](func(context.Context, Waker) (struct{}, bool) {
		return struct{}{}, false
	})
	if _, err := core.Spawn(context.Background(), pool, Future[struct{}](forever)); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	later, err := core.SpawnAfter(context.Background(), pool, time.Hour, Future[struct{}](core.Ready(func(context.Context) struct{} {
		return struct{}{}
	})))
	if err != nil {
		t.Fatalf("SpawnAfter failed: %v", err)
	}

	// Act
	start := time.Now()
	err = StopGraceful(pool, 50*time.Millisecond)

	// Assert
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("StopGraceful error = %v, want a timeout error", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("StopGraceful took %v", elapsed)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := later.Await(ctx); !errors.Is(err, ErrTaskCancelled) {
		t.Errorf("delayed task error = %v, want ErrTaskCancelled", err)
	}
}

// TestGlobalPool verifies the global pool helpers
// Given: An initialized global pool
// When: Tasks are spawned concurrently through the package-level helpers
// Then: All results arrive and the pool can be shut down and re-initialized
func TestGlobalPool(t *testing.T) {
	// Arrange
	if err := InitGlobalPool(2); err != nil {
		t.Fatalf("InitGlobalPool failed: %v", err)
	}
	first := GetGlobalPool()
	if err := InitGlobalPool(8); err != nil {
		t.Fatalf("second InitGlobalPool failed: %v", err)
	}
	if GetGlobalPool() != first {
		t.Fatal("second InitGlobalPool should keep the existing pool")
	}

	// Act
	var sum atomic.Int64
	g, ctx := errgroup.WithContext(context.Background())
	for i := range 20 {
		g.Go(func() error {
			h, err := SpawnFunc(context.Background(), func(context.Context) int { return i })
			if err != nil {
				return err
			}
			v, err := h.Await(ctx)
			sum.Add(int64(v))
			return err
		})
	}
	err := g.Wait()

	// Assert
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if got := sum.Load(); got != 190 {
		t.Errorf("sum = %d, want 190", got)
	}

	done := make(chan struct{})
	if _, err := Go(context.Background(), func(context.Context) { close(done) }); err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	<-done

	ShutdownGlobalPool()
	if first.IsRunning() {
		t.Error("global pool should be stopped")
	}
	defer func() {
		if recover() == nil {
			t.Error("GetGlobalPool should panic after shutdown")
		}
	}()
	GetGlobalPool()
}
