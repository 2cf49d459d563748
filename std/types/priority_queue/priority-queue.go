// Package priority_queue wraps container/heap as a generic min-queue,
// used by the routing protocol to order pending route expiries.
package priority_queue

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type item[V any, P constraints.Ordered] struct {
	object   V
	priority P
}

type wrapper[V any, P constraints.Ordered] []item[V, P]

// Queue is a priority queue popping the MINIMUM priority first.
type Queue[V any, P constraints.Ordered] struct {
	pq wrapper[V, P]
}

func (pq *wrapper[V, P]) Len() int { return len(*pq) }

func (pq *wrapper[V, P]) Less(i, j int) bool {
	return (*pq)[i].priority < (*pq)[j].priority
}

func (pq *wrapper[V, P]) Swap(i, j int) {
	(*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i]
}

func (pq *wrapper[V, P]) Push(x any) {
	*pq = append(*pq, x.(item[V, P]))
}

func (pq *wrapper[V, P]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = item[V, P]{} // avoid holding references
	*pq = old[0 : n-1]
	return it
}

// Len returns the number of queued elements.
func (pq *Queue[V, P]) Len() int {
	return pq.pq.Len()
}

// Push queues value at the given priority.
func (pq *Queue[V, P]) Push(value V, priority P) {
	heap.Push(&pq.pq, item[V, P]{object: value, priority: priority})
}

// PeekPriority returns the minimum element's priority.
func (pq *Queue[V, P]) PeekPriority() P {
	return pq.pq[0].priority
}

// Pop removes and returns the minimum element.
func (pq *Queue[V, P]) Pop() V {
	return heap.Pop(&pq.pq).(item[V, P]).object
}

// New creates an empty queue.
func New[V any, P constraints.Ordered]() Queue[V, P] {
	return Queue[V, P]{wrapper[V, P]{}}
}
