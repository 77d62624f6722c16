package bus

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO of events with any number of producers and a
// single consumer. Push never blocks and nothing is ever dropped.
type Queue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Push appends an event. A zero Timestamp is filled in.
func (q *Queue) Push(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	q.mu.Lock()
	q.items = append(q.items, evt)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
		// A wakeup is already pending.
	}
}

// Publish pushes an event of the given kind.
func (q *Queue) Publish(kind string, payload any) {
	q.Push(Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}

// DrainAll removes and returns every pending event in enqueue order.
// It returns nil when the queue is empty.
func (q *Queue) DrainAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready returns a channel that receives a value after one or more pushes.
// Draining after a receive is the consumer's job.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
