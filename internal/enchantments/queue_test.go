package enchantments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(items []*QueueItem) []int {
	keys := make([]int, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	return keys
}

func popAll(q *DispatchQueue) []int {
	var keys []int
	for {
		item, ok := q.Pop()
		if !ok {
			return keys
		}
		keys = append(keys, item.Key)
	}
}

func TestDispatchQueue_FIFO(t *testing.T) {
	q := NewDispatchQueue()
	for _, key := range []int{1, 2, 3} {
		q.Push(&QueueItem{Key: key})
	}
	assert.Equal(t, 3, q.readyLen())
	assert.Equal(t, []int{1, 2, 3}, popAll(q))

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestDispatchQueue_PushFront(t *testing.T) {
	q := NewDispatchQueue()
	q.Push(&QueueItem{Key: 1})
	q.Push(&QueueItem{Key: 2})
	q.PushFront(&QueueItem{Key: 9})

	assert.Equal(t, []int{9, 1, 2}, popAll(q))
}

func TestDispatchQueue_RequeueAfterAndPromote(t *testing.T) {
	q := NewDispatchQueue()
	now := time.Now()

	q.Push(&QueueItem{Key: 1})
	q.Push(&QueueItem{Key: 2})
	q.RequeueAfter(&QueueItem{Key: 30, Attempt: 1}, now.Add(30*time.Millisecond))
	q.RequeueAfter(&QueueItem{Key: 10, Attempt: 1}, now.Add(10*time.Millisecond))
	q.RequeueAfter(&QueueItem{Key: 99, Attempt: 2}, now.Add(time.Hour))

	assert.Equal(t, 2, q.readyLen())
	assert.Equal(t, 3, q.delayedLen())
	assert.Equal(t, 5, q.Depth())

	next, ok := q.NextReadyAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(10*time.Millisecond), next)

	assert.Equal(t, 0, q.Promote(now))
	assert.Equal(t, 2, q.Promote(now.Add(time.Second)))

	// due retries go ahead of fresh keys, earliest first
	assert.Equal(t, []int{10, 30, 1, 2}, popAll(q))
	assert.Equal(t, 1, q.delayedLen())
}

func TestDispatchQueue_Notify(t *testing.T) {
	q := NewDispatchQueue()

	q.Push(&QueueItem{Key: 1})
	q.RequeueAfter(&QueueItem{Key: 2}, time.Now())

	select {
	case <-q.Notify():
	default:
		t.Fatal("expected a pending notification")
	}
	// notifications coalesce
	select {
	case <-q.Notify():
		t.Fatal("expected a single notification")
	default:
	}
}

func TestDispatchQueue_Drain(t *testing.T) {
	q := NewDispatchQueue()
	q.Push(&QueueItem{Key: 1})
	q.RequeueAfter(&QueueItem{Key: 2}, time.Now().Add(time.Hour))
	q.Push(&QueueItem{Key: 3})

	assert.Equal(t, []int{1, 3, 2}, keysOf(q.Drain()))
	assert.Equal(t, 0, q.Depth())
	_, ok := q.NextReadyAt()
	assert.False(t, ok)
}
