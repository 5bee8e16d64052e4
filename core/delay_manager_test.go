package core

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingWaker struct {
	n  atomic.Int32
	ch chan struct{}
}

func newCountingWaker() *countingWaker {
	return &countingWaker{ch: make(chan struct{}, 1024)}
}

func (w *countingWaker) Wake() {
	w.n.Add(1)
	w.ch <- struct{}{}
}

// =============================================================================
// DelayManager Tests
// =============================================================================

// TestDelayManager_BatchProcessing verifies expired entries fire together
// Given: 100 wakers due at about the same time
// When: The deadline passes
// Then: Every waker is called once and nothing stays pending
func TestDelayManager_BatchProcessing(t *testing.T) {
	// Arrange
	dm := NewDelayManager()
	defer dm.Stop()
	w := newCountingWaker()

	// Act
	runAt := time.Now().Add(50 * time.Millisecond)
	for range 100 {
		dm.WakeAt(runAt, w)
	}

	// Assert
	deadline := time.After(2 * time.Second)
	for range 100 {
		select {
		case <-w.ch:
		case <-deadline:
			t.Fatalf("only %d of 100 wakers fired", w.n.Load())
		}
	}
	if n := dm.TaskCount(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

// TestDelayManager_EarlierEntryReschedules verifies the timer is recalculated
// Given: An entry due in one hour
// When: An entry due in 20ms is added
// Then: The early entry fires without waiting for the late one
func TestDelayManager_EarlierEntryReschedules(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()
	late, early := newCountingWaker(), newCountingWaker()

	dm.WakeAt(time.Now().Add(time.Hour), late)
	dm.WakeAt(time.Now().Add(20*time.Millisecond), early)

	select {
	case <-early.ch:
	case <-time.After(time.Second):
		t.Fatal("early entry did not fire")
	}
	if late.n.Load() != 0 {
		t.Error("late entry fired early")
	}
}

// TestDelayManager_StopWakesPending verifies Stop releases every waiter
// Given: Two entries due in one hour
// When: Stop is called and another entry is added afterwards
// Then: All three wakers fire immediately
func TestDelayManager_StopWakesPending(t *testing.T) {
	// Arrange
	dm := NewDelayManager()
	w := newCountingWaker()
	dm.WakeAt(time.Now().Add(time.Hour), w)
	dm.WakeAt(time.Now().Add(time.Hour), w)

	// Act
	dm.Stop()
	dm.WakeAt(time.Now().Add(time.Hour), w)

	// Assert
	if n := w.n.Load(); n != 3 {
		t.Errorf("wakes = %d, want 3", n)
	}
	if n := dm.TaskCount(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}
