package core

import (
	"slices"
	"sync"
	"sync/atomic"
)

// registry is the set of workers that count toward the pool's parallelism.
// Readers (thieves, the monitor, Stats) load an immutable snapshot; writers
// serialize on mu and publish a fresh copy.
type registry struct {
	mu      sync.Mutex
	workers atomic.Pointer[[]*worker]
}

func (r *registry) snapshot() []*worker {
	if ws := r.workers.Load(); ws != nil {
		return *ws
	}
	return nil
}

func (r *registry) add(w *worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := append(slices.Clone(r.snapshot()), w)
	r.workers.Store(&next)
}

// swapLocked puts fresh in old's position. The caller holds mu.
func (r *registry) swapLocked(old, fresh *worker) int {
	cur := r.snapshot()
	idx := slices.Index(cur, old)
	next := slices.Clone(cur)
	if idx < 0 {
		next = append(next, fresh)
		idx = len(next) - 1
	} else {
		next[idx] = fresh
	}
	r.workers.Store(&next)
	return idx
}

func (r *registry) remove(w *worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.snapshot()
	idx := slices.Index(cur, w)
	if idx < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(cur), idx, idx+1)
	r.workers.Store(&next)
	return true
}

func (r *registry) len() int {
	return len(r.snapshot())
}
