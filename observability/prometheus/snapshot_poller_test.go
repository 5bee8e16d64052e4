package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-task-executor/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{
		Workers:   8,
		Parked:    3,
		Queued:    4,
		Injected:  6,
		Active:    2,
		Delayed:   1,
		LiveTasks: 12,
		Replaced:  2,
		Running:   true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		active := testutil.ToFloat64(poller.gauges["pool_active"].WithLabelValues("pool-a"))
		live := testutil.ToFloat64(poller.gauges["pool_live_tasks"].WithLabelValues("pool-a"))
		return active == 2 && live == 12
	})

	want := map[string]float64{
		"pool_workers":          8,
		"pool_parked_workers":   3,
		"pool_local_queued":     4,
		"pool_injector_queued":  6,
		"pool_delayed":          1,
		"pool_replaced_workers": 2,
		"pool_running":          1,
	}
	for name, v := range want {
		if got := testutil.ToFloat64(poller.gauges[name].WithLabelValues("pool-a")); got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
}

func TestSnapshotPoller_RealPool(t *testing.T) {
	cfg := core.DefaultPoolConfig()
	cfg.WorkerCount = 3
	cfg.Logger = core.NewNoOpLogger()
	pool, err := core.NewPool(cfg)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Shutdown(core.ShutdownImmediate)

	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}
	poller.AddPool("real", pool)
	poller.Start(context.Background())
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		return testutil.ToFloat64(poller.gauges["pool_registered_workers"].WithLabelValues("real")) == 3
	})

	poller.RemovePool("real")
	if n := testutil.CollectAndCount(poller.gauges["pool_workers"]); n != 0 {
		t.Errorf("series after RemovePool = %d, want 0", n)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
