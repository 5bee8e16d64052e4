package core

import "sync"

const defaultReplacementHistoryCapacity = 64

// replacementHistory keeps the most recent replacement records in a ring.
type replacementHistory struct {
	mu    sync.Mutex
	items []ReplacementRecord
	head  int
	count int
}

func newReplacementHistory(capacity int) *replacementHistory {
	if capacity < 1 {
		capacity = defaultReplacementHistoryCapacity
	}
	return &replacementHistory{items: make([]ReplacementRecord, capacity)}
}

func (h *replacementHistory) Add(record ReplacementRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (h *replacementHistory) Recent(limit int) []ReplacementRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]ReplacementRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}
