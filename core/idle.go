package core

import (
	"sync"
	"sync/atomic"
)

// idleSet tracks parked workers. A worker is in the set at most once; the
// goroutine that removes it owns the right to send its wake token.
type idleSet struct {
	mu      sync.Mutex
	workers []*worker
	count   atomic.Int32
}

func (s *idleSet) push(w *worker) {
	s.mu.Lock()
	s.workers = append(s.workers, w)
	s.count.Store(int32(len(s.workers)))
	s.mu.Unlock()
}

// pop removes the most recently parked worker. Its caches are the warmest.
func (s *idleSet) pop() *worker {
	if s.count.Load() == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.workers)
	if n == 0 {
		return nil
	}
	w := s.workers[n-1]
	s.workers[n-1] = nil
	s.workers = s.workers[:n-1]
	s.count.Store(int32(len(s.workers)))
	return w
}

// remove takes w out of the set. It reports false when someone else popped
// w first, in which case a wake token is on its way.
func (s *idleSet) remove(w *worker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.workers {
		if x == w {
			last := len(s.workers) - 1
			s.workers[i] = s.workers[last]
			s.workers[last] = nil
			s.workers = s.workers[:last]
			s.count.Store(int32(len(s.workers)))
			return true
		}
	}
	return false
}

func (s *idleSet) popAll() []*worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.workers
	s.workers = nil
	s.count.Store(0)
	return out
}

func (s *idleSet) len() int {
	return int(s.count.Load())
}
