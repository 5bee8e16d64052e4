package core

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// timerEntry is a waker due at RunAt.
type timerEntry struct {
	RunAt time.Time
	Waker Waker
	index int // for heap interface
}

// timerHeap implements heap.Interface
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].RunAt.Before(h[j].RunAt) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	n := len(*h)
	item := x.(*timerEntry)
	item.index = n
	*h = append(*h, item)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *timerHeap) Peek() *timerEntry {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// DelayManager wakes wakers at a deadline using a single timer goroutine
// per pool.
type DelayManager struct {
	pq      timerHeap
	mu      sync.Mutex
	stopped bool
	wakeup  chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewDelayManager() *DelayManager {
	ctx, cancel := context.WithCancel(context.Background())
	dm := &DelayManager{
		pq:     make(timerHeap, 0),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	heap.Init(&dm.pq)
	go dm.loop()
	return dm
}

// WakeAt arranges for w.Wake to be called at runAt. After Stop, w is woken
// right away.
func (dm *DelayManager) WakeAt(runAt time.Time, w Waker) {
	dm.mu.Lock()
	if dm.stopped {
		dm.mu.Unlock()
		w.Wake()
		return
	}

	item := &timerEntry{RunAt: runAt, Waker: w}
	heap.Push(&dm.pq, item)
	first := item.index == 0
	dm.mu.Unlock()

	if first {
		select {
		case dm.wakeup <- struct{}{}:
		default:
		}
	}
}

func (dm *DelayManager) loop() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		// Calculate next run time
		nextRun, pending := dm.calculateNextRun()
		if !pending {
			// No timers, wait indefinitely
			nextRun = 1000 * time.Hour
		}

		timer.Reset(nextRun)

		select {
		case <-dm.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			dm.fireExpired()
		case <-dm.wakeup:
			// New earliest entry, need to recalculate
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// calculateNextRun determines how long to wait until the earliest entry.
func (dm *DelayManager) calculateNextRun() (time.Duration, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	item := dm.pq.Peek()
	if item == nil {
		return 0, false
	}
	return max(time.Until(item.RunAt), 0), true
}

// fireExpired wakes every expired entry outside the lock.
func (dm *DelayManager) fireExpired() {
	dm.mu.Lock()

	now := time.Now()
	var expired []*timerEntry
	for dm.pq.Len() > 0 {
		item := dm.pq.Peek()
		if item.RunAt.After(now) {
			break
		}
		heap.Pop(&dm.pq)
		expired = append(expired, item)
	}

	dm.mu.Unlock()

	for _, item := range expired {
		item.Waker.Wake()
	}
}

// Stop ends the timer goroutine and wakes every pending waker early, so no
// task is left suspended on a timer that will never fire.
func (dm *DelayManager) Stop() {
	dm.cancel()

	dm.mu.Lock()
	dm.stopped = true
	pending := dm.pq
	dm.pq = make(timerHeap, 0)
	dm.mu.Unlock()

	for _, item := range pending {
		item.Waker.Wake()
	}
}

// TaskCount returns the number of pending timers.
func (dm *DelayManager) TaskCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.pq)
}

// =============================================================================
// Timer futures
// =============================================================================

type sleepFuture struct {
	delay    *DelayManager
	d        time.Duration
	deadline time.Time
	armed    bool
}

func (s *sleepFuture) Poll(_ context.Context, w Waker) (struct{}, bool) {
	if !s.armed {
		s.armed = true
		s.deadline = time.Now().Add(s.d)
	}
	if !time.Now().Before(s.deadline) {
		return struct{}{}, true
	}
	// Spurious polls re-arm; the task only runs again after a wake.
	s.delay.WakeAt(s.deadline, w)
	return struct{}{}, false
}

// afterFuture polls first to completion, then polls next.
type afterFuture[T any] struct {
	first   Future[struct{}]
	next    Future[T]
	started bool
}

func (a *afterFuture[T]) Poll(ctx context.Context, w Waker) (T, bool) {
	if !a.started {
		if _, ok := a.first.Poll(ctx, w); !ok {
			var zero T
			return zero, false
		}
		a.started = true
	}
	return a.next.Poll(ctx, w)
}
