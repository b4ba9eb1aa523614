package sync

import "sync"

// pendingQueue is a bounded, thread-safe FIFO of mutations awaiting
// retransmission to the authoritative store. When full, the oldest mutation
// is dropped to make room and counted; nothing is dropped silently below
// capacity.
type pendingQueue struct {
	mu       sync.Mutex
	items    []Mutation
	head     int
	tail     int
	count    int
	capacity int

	dropped int64
}

func newPendingQueue(capacity int) *pendingQueue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &pendingQueue{
		items:    make([]Mutation, capacity),
		capacity: capacity,
	}
}

// Enqueue adds a mutation, dropping the oldest if necessary.
func (q *pendingQueue) Enqueue(mut Mutation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count >= q.capacity {
		q.tail = (q.tail + 1) % q.capacity
		q.count--
		q.dropped++
	}
	q.items[q.head] = mut
	q.head = (q.head + 1) % q.capacity
	q.count++
}

// DequeueAll removes and returns every queued mutation in FIFO order.
func (q *pendingQueue) DequeueAll() []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	out := make([]Mutation, 0, q.count)
	for q.count > 0 {
		out = append(out, q.items[q.tail])
		q.tail = (q.tail + 1) % q.capacity
		q.count--
	}
	return out
}

// Requeue returns mutations to the front of the queue in order, used when a
// replay aborts partway.
func (q *pendingQueue) Requeue(muts []Mutation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(muts) - 1; i >= 0; i-- {
		if q.count >= q.capacity {
			q.dropped++
			continue
		}
		q.tail = (q.tail - 1 + q.capacity) % q.capacity
		q.items[q.tail] = muts[i]
		q.count++
	}
}

// Items returns a copy of the queued mutations in FIFO order without
// removing them, used to persist the queue alongside the snapshot.
func (q *pendingQueue) Items() []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	out := make([]Mutation, 0, q.count)
	for i, idx := 0, q.tail; i < q.count; i++ {
		out = append(out, q.items[idx])
		idx = (idx + 1) % q.capacity
	}
	return out
}

func (q *pendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *pendingQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
