package event

import (
	"sync"
)

// Queue is an MPSC FIFO for host events
// Thread-Safety:
//   - Push: multiple producers OK, serialized by a mutex
//   - Consume: single consumer (host update stage), takes the whole backlog
//
// Overflow: an unbounded queue never drops. A bounded queue overwrites the
// oldest unread events and counts them in Dropped
type Queue struct {
	mu      sync.Mutex
	pending []Event
	limit   int // 0 = unbounded
	dropped uint64
}

// NewQueue creates an unbounded queue; every pushed event is delivered
func NewQueue() *Queue {
	return &Queue{}
}

// NewBoundedQueue creates a queue holding at most limit unread events
// Pushing onto a full queue discards the oldest one
func NewBoundedQueue(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	return &Queue{limit: limit}
}

// Push appends ev, safe for concurrent producers
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	if q.limit > 0 && len(q.pending) > q.limit {
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.dropped++
	}
	q.mu.Unlock()
}

// Consume returns all pending events in FIFO order and empties the queue
// The returned slice belongs to the caller
func (q *Queue) Consume() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = make([]Event, 0, min(cap(out), 256))
	return out
}

// Len returns the number of unread events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns how many unread events a bounded queue overwrote
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
