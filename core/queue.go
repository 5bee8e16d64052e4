package core

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

const (
	defaultLocalQueueCap = 256
	minLocalQueueCap     = 4
)

// =============================================================================
// localQueue: per-worker double-ended queue
// =============================================================================

// localQueue is a bounded ring deque owned by one worker. The owner pushes
// and pops at the back, so the most recently pushed task runs first. Thieves
// take a batch from the front with TryLock and never wait for the lock.
type localQueue struct {
	mu   sync.Mutex
	buf  []*task
	mask int
	head int // index of the front element
	size int

	// length mirrors size so empty checks take no lock.
	length atomic.Int32
}

func newLocalQueue(capacity int) *localQueue {
	if capacity < minLocalQueueCap {
		capacity = minLocalQueueCap
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &localQueue{
		buf:  make([]*task, n),
		mask: n - 1,
	}
}

// push appends t at the back. It returns false when the queue is full.
func (q *localQueue) push(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.size)&q.mask] = t
	q.size++
	q.length.Store(int32(q.size))
	return true
}

// pushFront puts t where thieves look first and the owner looks last.
// Yielding tasks go here so they do not starve their siblings.
func (q *localQueue) pushFront(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		return false
	}
	q.head = (q.head - 1) & q.mask
	q.buf[q.head] = t
	q.size++
	q.length.Store(int32(q.size))
	return true
}

// pop removes the most recently pushed task.
func (q *localQueue) pop() *task {
	if q.length.Load() == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return nil
	}
	q.size--
	idx := (q.head + q.size) & q.mask
	t := q.buf[idx]
	q.buf[idx] = nil
	q.length.Store(int32(q.size))
	return t
}

// popFront removes up to n of the oldest tasks.
func (q *localQueue) popFront(n int) []*task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popFrontLocked(n)
}

func (q *localQueue) popFrontLocked(n int) []*task {
	if n > q.size {
		n = q.size
	}
	if n <= 0 {
		return nil
	}
	batch := make([]*task, n)
	for i := range n {
		batch[i] = q.buf[q.head]
		q.buf[q.head] = nil
		q.head = (q.head + 1) & q.mask
	}
	q.size -= n
	q.length.Store(int32(q.size))
	return batch
}

// steal removes up to half of the queued tasks, at most max, from the front.
// It gives up after retries failed TryLock attempts, so a thief never blocks.
func (q *localQueue) steal(max, retries int) []*task {
	if q.length.Load() == 0 {
		return nil
	}
	locked := false
	for range retries {
		if q.mu.TryLock() {
			locked = true
			break
		}
		runtime.Gosched()
	}
	if !locked {
		return nil
	}
	defer q.mu.Unlock()

	n := (q.size + 1) / 2
	if n > max {
		n = max
	}
	return q.popFrontLocked(n)
}

// drain removes every queued task.
func (q *localQueue) drain() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popFrontLocked(q.size)
}

func (q *localQueue) len() int {
	return int(q.length.Load())
}

func (q *localQueue) capacity() int {
	return len(q.buf)
}

// =============================================================================
// injector: pool-wide multi-producer/multi-consumer FIFO
// =============================================================================

// injector holds externally submitted tasks, wakes and local-queue overflow.
// The lock is held only for ring operations and is skipped when the atomic
// length says the queue is empty.
type injector struct {
	mu     sync.Mutex
	q      *queue.Queue
	length atomic.Int64
}

func newInjector() *injector {
	return &injector{q: queue.New()}
}

func (in *injector) push(t *task) {
	in.mu.Lock()
	in.q.Add(t)
	in.length.Store(int64(in.q.Length()))
	in.mu.Unlock()
}

func (in *injector) pushBatch(batch []*task) {
	if len(batch) == 0 {
		return
	}
	in.mu.Lock()
	for _, t := range batch {
		in.q.Add(t)
	}
	in.length.Store(int64(in.q.Length()))
	in.mu.Unlock()
}

func (in *injector) pop() *task {
	batch := in.popBatch(1)
	if len(batch) == 0 {
		return nil
	}
	return batch[0]
}

// popBatch removes up to n tasks in arrival order.
func (in *injector) popBatch(n int) []*task {
	if in.length.Load() == 0 || n <= 0 {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if l := in.q.Length(); n > l {
		n = l
	}
	if n == 0 {
		return nil
	}
	batch := make([]*task, n)
	for i := range n {
		batch[i] = in.q.Remove().(*task)
	}
	in.length.Store(int64(in.q.Length()))
	return batch
}

func (in *injector) drain() []*task {
	return in.popBatch(int(in.length.Load()))
}

func (in *injector) len() int {
	return int(in.length.Load())
}
