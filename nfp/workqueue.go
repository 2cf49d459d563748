package nfp

import (
	"sync"

	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// workItem is one (anchorName, prefix) pair pending (re)transmission.
type workItem struct {
	Anchor pkt.Name
	Prefix pkt.Name
}

func (w workItem) hash() uint64 {
	return w.Anchor.Hash()*1099511628211 ^ w.Prefix.Hash()
}

// workQueue is an ordered set of (anchorName, prefix) pairs: each pair
// appears at most once, in original insertion order.
type workQueue struct {
	mu      sync.Mutex
	order   []workItem
	present map[uint64]bool
}

func newWorkQueue() *workQueue {
	return &workQueue{present: make(map[uint64]bool)}
}

// Enqueue inserts item if not already present, returning whether it was
// newly added.
func (q *workQueue) Enqueue(item workItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	h := item.hash()
	if q.present[h] {
		return false
	}
	q.present[h] = true
	q.order = append(q.order, item)
	return true
}

// PopAll drains the queue in FIFO order.
func (q *workQueue) PopAll() []workItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.order
	q.order = nil
	q.present = make(map[uint64]bool)
	return out
}

// Len returns the number of pending entries.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
