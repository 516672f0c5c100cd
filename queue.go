package main

import (
	"context"
	"sync"
)

// PendingQueue is the unbounded FIFO hand-off between ingestion and the
// forwarder. Any number of producers may Put without ever blocking; a single
// consumer drains it with Get, so delivery order equals enqueue order. Every
// dequeued item must be acknowledged with Done exactly once — acknowledgment
// only feeds the backlog accounting, it never reorders anything, but a
// missing Done would leak the in-flight counter.
type PendingQueue struct {
	mu       sync.Mutex
	items    []*CandidateMessage
	inflight int
	acked    int64

	signal chan struct{}
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{signal: make(chan struct{}, 1)}
}

// Put enqueues a candidate. Never blocks.
func (q *PendingQueue) Put(msg *CandidateMessage) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Get removes the oldest candidate, suspending while the queue is empty.
// Returns an error only when ctx is cancelled.
func (q *PendingQueue) Get(ctx context.Context) (*CandidateMessage, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.inflight++
			q.mu.Unlock()
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
		}
	}
}

// Done acknowledges one dequeued item, successful or dropped.
func (q *PendingQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight > 0 {
		q.inflight--
		q.acked++
	}
}

// Size returns the current backlog, not counting the in-flight item.
func (q *PendingQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Acked returns the number of acknowledged items since start.
func (q *PendingQueue) Acked() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.acked
}
