package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func oldWorkers(records []ReplacementRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.OldWorker
	}
	return out
}

// TestReplacementHistory_RingOverwrite verifies the bounded ring
// Given: A history with capacity 3
// When: Five records are added
// Then: Only the newest three are kept, newest first
func TestReplacementHistory_RingOverwrite(t *testing.T) {
	// Arrange
	h := newReplacementHistory(3)

	// Act
	for i := range 5 {
		h.Add(ReplacementRecord{OldWorker: i})
	}

	// Assert
	if diff := cmp.Diff([]int{4, 3, 2}, oldWorkers(h.Recent(0))); diff != "" {
		t.Errorf("Recent(0) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{4, 3}, oldWorkers(h.Recent(2))); diff != "" {
		t.Errorf("Recent(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestReplacementHistory_Empty(t *testing.T) {
	h := newReplacementHistory(0)
	if got := h.Recent(10); got != nil {
		t.Errorf("Recent on empty history = %v, want nil", got)
	}
	if len(h.items) != defaultReplacementHistoryCapacity {
		t.Errorf("capacity = %d, want %d", len(h.items), defaultReplacementHistoryCapacity)
	}
}
