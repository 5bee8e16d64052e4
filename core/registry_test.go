package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func workerIDs(ws []*worker) []int {
	ids := make([]int, len(ws))
	for i, w := range ws {
		ids[i] = w.id
	}
	return ids
}

// TestRegistry_SwapKeepsPosition verifies replacement keeps the slot
// Given: A registry of three workers
// When: The middle worker is swapped for a fresh one and the first is removed
// Then: The fresh worker sits in the old slot and old snapshots are unchanged
func TestRegistry_SwapKeepsPosition(t *testing.T) {
	// Arrange
	var r registry
	ws := []*worker{{id: 0}, {id: 1}, {id: 2}}
	for _, w := range ws {
		r.add(w)
	}
	before := r.snapshot()

	// Act
	r.mu.Lock()
	slot := r.swapLocked(ws[1], &worker{id: 7})
	r.mu.Unlock()
	removed := r.remove(ws[0])

	// Assert
	if slot != 1 {
		t.Errorf("slot = %d, want 1", slot)
	}
	if !removed {
		t.Error("remove should report true for a registered worker")
	}
	if r.remove(ws[0]) {
		t.Error("second remove should report false")
	}
	if diff := cmp.Diff([]int{7, 2}, workerIDs(r.snapshot())); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, workerIDs(before)); diff != "" {
		t.Errorf("old snapshot changed (-want +got):\n%s", diff)
	}
}

// TestIdleSet_PopIsLIFO verifies parked workers are woken newest first
func TestIdleSet_PopIsLIFO(t *testing.T) {
	var s idleSet
	a, b, c := &worker{id: 1}, &worker{id: 2}, &worker{id: 3}
	s.push(a)
	s.push(b)
	s.push(c)

	if !s.remove(a) || s.remove(a) {
		t.Fatal("remove should succeed once")
	}
	if got := s.pop(); got != c {
		t.Errorf("pop = worker %d, want 3", got.id)
	}
	if s.len() != 1 {
		t.Errorf("len = %d, want 1", s.len())
	}
	if got := s.popAll(); len(got) != 1 || got[0] != b {
		t.Errorf("popAll = %v, want [2]", workerIDs(got))
	}
	if s.pop() != nil {
		t.Error("pop on empty set should return nil")
	}
}
