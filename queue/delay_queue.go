// Package queue implements a generic multi-server delay queue: every
// table in this forwarder (FIB, PIT, Content Store) and
// the forwarder's own input stage delays each work item by a computed
// service time before releasing it, modeling per-packet processing cost.
package queue

import (
	"sync"
	"time"
)

// ServiceTimeFunc computes how long an item should be serviced before
// its Dequeue callback fires.
type ServiceTimeFunc[T any] func(item T) time.Duration

// DequeueFunc is invoked once an item's service time has elapsed. It may
// itself call PushBack on the same queue (e.g. a PIT callback enqueuing
// a follow-on FIB lookup); the queue's accounting is arranged so that is
// always safe and never double-counts backlog.
type DequeueFunc[T any] func(item T)

// DelayQueue is a generic work-item queue with N parallel servers.
// PushBack either starts servicing an item immediately on
// an idle server, or appends it to the FIFO backlog if every server is
// busy. Scheduling uses the runtime's own timer wheel (time.AfterFunc)
// rather than a hand-rolled priority queue: each server only ever has
// one outstanding timer, so there is nothing to keep sorted.
type DelayQueue[T any] struct {
	mu          sync.Mutex
	busy        []bool
	waiting     []T
	serviceTime ServiceTimeFunc[T]
	dequeue     DequeueFunc[T]
}

// New constructs a DelayQueue with the given server count (at least 1)
// and callbacks.
func New[T any](servers int, serviceTime ServiceTimeFunc[T], dequeue DequeueFunc[T]) *DelayQueue[T] {
	if servers < 1 {
		servers = 1
	}
	return &DelayQueue[T]{
		busy:        make([]bool, servers),
		serviceTime: serviceTime,
		dequeue:     dequeue,
	}
}

// PushBack enqueues an item. If a server is idle, service starts
// immediately; otherwise the item waits FIFO behind whatever is
// currently in the backlog.
func (q *DelayQueue[T]) PushBack(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.busy {
		if !q.busy[i] {
			q.startLocked(i, item)
			return
		}
	}
	q.waiting = append(q.waiting, item)
}

// startLocked marks server i busy and arms its timer. Caller must hold mu.
func (q *DelayQueue[T]) startLocked(server int, item T) {
	q.busy[server] = true
	d := q.serviceTime(item)
	if d < 0 {
		d = 0
	}
	time.AfterFunc(d, func() { q.fire(server, item) })
}

// fire runs on the server's timer. It invokes Dequeue first, while the
// server is still marked busy, then (holding the lock) either starts the
// next backlogged item on this server or frees it. Running Dequeue
// before freeing the server preserves the "backlog decrements only
// after Dequeue runs" rule even when Dequeue reenters PushBack.
func (q *DelayQueue[T]) fire(server int, item T) {
	q.dequeue(item)

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) > 0 {
		next := q.waiting[0]
		q.waiting = q.waiting[1:]
		q.startLocked(server, next)
		return
	}
	q.busy[server] = false
}

// Len returns the total number of items currently in service or waiting.
func (q *DelayQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.waiting)
	for _, b := range q.busy {
		if b {
			n++
		}
	}
	return n
}

// Backlog returns the number of items waiting for a free server (i.e.
// not currently in service).
func (q *DelayQueue[T]) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
