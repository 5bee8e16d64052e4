package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-task-executor/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	// one vec per PoolStats field, labelled by pool
	gauges map[string]*prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type poolGauge struct {
	name  string
	help  string
	value func(core.PoolStats) float64
}

var poolGauges = []poolGauge{
	{"pool_workers", "Target worker count per pool.", func(s core.PoolStats) float64 { return float64(s.Workers) }},
	{"pool_registered_workers", "Registered workers per pool.", func(s core.PoolStats) float64 { return float64(s.Registered) }},
	{"pool_parked_workers", "Parked workers per pool.", func(s core.PoolStats) float64 { return float64(s.Parked) }},
	{"pool_searching_workers", "Workers searching for work per pool.", func(s core.PoolStats) float64 { return float64(s.Searching) }},
	{"pool_retiring_workers", "Replaced workers still inside a blocked poll.", func(s core.PoolStats) float64 { return float64(s.Retiring) }},
	{"pool_local_queued", "Tasks in local queues per pool.", func(s core.PoolStats) float64 { return float64(s.Queued) }},
	{"pool_injector_queued", "Tasks in the injector per pool.", func(s core.PoolStats) float64 { return float64(s.Injected) }},
	{"pool_active", "Polls in progress per pool.", func(s core.PoolStats) float64 { return float64(s.Active) }},
	{"pool_delayed", "Pending timers per pool.", func(s core.PoolStats) float64 { return float64(s.Delayed) }},
	{"pool_live_tasks", "Spawned tasks not yet completed per pool.", func(s core.PoolStats) float64 { return float64(s.LiveTasks) }},
	{"pool_stolen_tasks", "Stolen task count snapshot.", func(s core.PoolStats) float64 { return float64(s.Stolen) }},
	{"pool_replaced_workers", "Worker replacement count snapshot.", func(s core.PoolStats) float64 { return float64(s.Replaced) }},
	{"pool_running", "Pool running state (1=running, 0=shutting down or stopped).", func(s core.PoolStats) float64 {
		if s.Running {
			return 1
		}
		return 0
	}},
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauges := make(map[string]*prom.GaugeVec, len(poolGauges))
	for _, g := range poolGauges {
		vec := prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "taskexecutor",
			Name:      g.name,
			Help:      g.help,
		}, []string{"pool"})
		vec, err := registerCollector(reg, vec)
		if err != nil {
			return nil, err
		}
		gauges[g.name] = vec
	}

	return &SnapshotPoller{
		interval: interval,
		pools:    make(map[string]PoolSnapshotProvider),
		gauges:   gauges,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// RemovePool stops exporting the named pool and deletes its series.
func (p *SnapshotPoller) RemovePool(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	delete(p.pools, name)
	p.poolsMu.Unlock()
	for _, vec := range p.gauges {
		vec.DeleteLabelValues(name)
	}
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		for _, g := range poolGauges {
			p.gauges[g.name].WithLabelValues(name).Set(g.value(stats))
		}
	}
}
