package task

import (
	"sync"

	"github.com/google/uuid"
)

// fifoQueue is the unbounded pending-id queue shared by all workers.
// Submissions are never rejected for capacity; the only failure mode of
// Submit is a stopped scheduler. A one-slot wake channel lets idle workers
// block until the next push without polling.
type fifoQueue struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	wake chan struct{}
}

func newFIFOQueue() *fifoQueue {
	return &fifoQueue{
		wake: make(chan struct{}, 1),
	}
}

// push appends id and wakes one idle worker.
func (q *fifoQueue) push(id uuid.UUID) {
	q.mu.Lock()
	q.ids = append(q.ids, id)
	q.mu.Unlock()
	q.signal()
}

// pop removes and returns the oldest id. The second return is false when
// the queue is empty. When ids remain after the pop, the wake signal is
// re-armed so sibling workers blocked on the channel get a turn; the
// one-slot buffer coalesces signals but never loses the last one.
func (q *fifoQueue) pop() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return uuid.Nil, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	if len(q.ids) == 0 {
		q.ids = nil
	} else {
		q.signal()
	}
	return id, true
}

// len reports the current queue depth.
func (q *fifoQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

func (q *fifoQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
