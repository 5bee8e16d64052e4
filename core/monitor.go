package core

import "time"

// heartbeatSample is the monitor's memory of one worker.
type heartbeatSample struct {
	heartbeat uint64
	stalls    int
}

// monitor samples worker heartbeats every SamplingInterval and replaces
// workers that stay in one poll for longer than BlockingThreshold.
func (p *Pool) monitor() {
	defer p.monitorWG.Done()

	ticker := time.NewTicker(p.cfg.SamplingInterval)
	defer ticker.Stop()

	limit := p.cfg.thresholdSamples()
	samples := make(map[*worker]*heartbeatSample)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
		}

		p.sampleWorkers(samples, limit)

		p.metrics.RecordQueueDepth(p.id, p.queueDepth())
		if p.state.Load() == poolDraining && p.live.Load() == 0 {
			p.beginStop()
		}
	}
}

func (p *Pool) sampleWorkers(samples map[*worker]*heartbeatSample, limit int) {
	workers := p.registry.snapshot()
	seen := make(map[*worker]struct{}, len(workers))

	for _, w := range workers {
		seen[w] = struct{}{}
		hb := w.heartbeat.Load()
		s, ok := samples[w]
		if !ok {
			samples[w] = &heartbeatSample{heartbeat: hb}
			continue
		}
		if w.status.Load() == workerRunning && hb == s.heartbeat {
			s.stalls++
		} else {
			s.stalls = 0
		}
		s.heartbeat = hb

		if s.stalls >= limit {
			delete(samples, w)
			p.replaceWorker(w, ReplacementStalled)
		}
	}

	for w := range samples {
		if _, ok := seen[w]; !ok {
			delete(samples, w)
		}
	}
}

func (p *Pool) queueDepth() int {
	depth := p.inj.len()
	for _, w := range p.registry.snapshot() {
		depth += w.local.len()
	}
	return depth
}

// replaceWorker retires old, which is stuck in a poll, and starts a fresh
// worker in its registry position. old's queued tasks move to the injector.
// The stuck poll is left alone; old exits when it returns. It reports
// whether a replacement happened.
func (p *Pool) replaceWorker(old *worker, reason ReplacementReason) bool {
	p.registry.mu.Lock()
	if p.state.Load() >= poolStopping {
		p.registry.mu.Unlock()
		return false
	}
	if !old.status.CompareAndSwap(workerRunning, workerRetiring) {
		p.registry.mu.Unlock()
		p.logger.Debug("worker not replaced",
			F("pool", p.id),
			F("worker", old.id),
			F("status", workerStatusName(old.status.Load())),
		)
		return false
	}
	fresh := p.newWorker()
	p.activeWG.Add(1)
	slot := p.registry.swapLocked(old, fresh)
	p.retiring.Add(1)
	p.registry.mu.Unlock()

	// old no longer counts as a registered worker.
	p.activeWG.Done()

	moved := old.takeAll()
	if len(moved) > 0 {
		p.inject(moved...)
	}
	go fresh.run()
	p.notifyWork()

	record := ReplacementRecord{
		PoolID:     p.id,
		OldWorker:  old.id,
		NewWorker:  fresh.id,
		Slot:       slot,
		Reason:     reason,
		Moved:      len(moved),
		ReplacedAt: time.Now(),
	}
	if t := old.current.Load(); t != nil {
		record.TaskID = t.id
	}
	p.history.Add(record)
	p.replaced.Add(1)
	p.metrics.RecordWorkerReplaced(p.id, reason)
	p.logger.Warn("worker replaced",
		F("pool", p.id),
		F("reason", string(reason)),
		F("old_worker", old.id),
		F("new_worker", fresh.id),
		F("task", record.TaskID.String()),
		F("moved", len(moved)),
	)
	return true
}
