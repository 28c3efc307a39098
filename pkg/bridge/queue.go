package bridge

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// queue is a bounded multi-producer, single-consumer FIFO. Admission never
// blocks: a slot is taken on push and given back when the request has
// finished executing, so capacity bounds queued plus in-flight work.
type queue struct {
	mu     sync.RWMutex
	closed bool
	ch     chan *request
	slots  *semaphore.Weighted
}

func newQueue(capacity int) *queue {
	return &queue{
		// One extra buffer slot keeps room for the shutdown request.
		ch:    make(chan *request, capacity+1),
		slots: semaphore.NewWeighted(int64(capacity)),
	}
}

func (q *queue) push(r *request) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	if !q.slots.TryAcquire(1) {
		return ErrQueueFull
	}
	select {
	case q.ch <- r:
		return nil
	default:
		q.slots.Release(1)
		return ErrQueueFull
	}
}

// shutdown enqueues the shutdown request best-effort and closes the queue.
// Requests already queued still run first. It reports whether this call
// closed the queue.
func (q *queue) shutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- &request{op: opShutdown}:
	default:
	}
	q.closed = true
	close(q.ch)
	return true
}

// pop blocks for the next request. It returns false once the queue is closed
// and drained.
func (q *queue) pop() (*request, bool) {
	r, ok := <-q.ch
	return r, ok
}

// done returns the slot of an executed request.
func (q *queue) done() {
	q.slots.Release(1)
}

func (q *queue) queued() int {
	return len(q.ch)
}
