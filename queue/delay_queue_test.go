package queue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayQueueSingleServerFIFO(t *testing.T) {
	var mu sync.Mutex
	var order []int

	q := New(1, func(int) time.Duration {
		return 5 * time.Millisecond
	}, func(item int) {
		mu.Lock()
		order = append(order, item)
		mu.Unlock()
	})

	q.PushBack(1)
	q.PushBack(2)
	q.PushBack(3)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDelayQueueBacklogBoundedByServers(t *testing.T) {
	q := New[int](2, func(int) time.Duration {
		return 20 * time.Millisecond
	}, func(int) {})

	q.PushBack(1)
	q.PushBack(2)
	q.PushBack(3)
	// Two servers: at most 2 in service, 1 waiting.
	assert.Equal(t, 1, q.Backlog())
	assert.Equal(t, 3, q.Len())
}

func TestDelayQueueDequeueMayReenterPushBack(t *testing.T) {
	var count atomic.Int32
	var q *DelayQueue[int]
	q = New(1, func(int) time.Duration { return time.Millisecond }, func(item int) {
		if n := count.Add(1); n < 5 {
			q.PushBack(item + 1)
		}
	})
	q.PushBack(0)

	require.Eventually(t, func() bool {
		return count.Load() == 5
	}, time.Second, time.Millisecond)
}
