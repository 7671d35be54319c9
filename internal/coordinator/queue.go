package coordinator

// PendingQueue holds admitted write requests in FIFO order until they are
// drained into a batch. Not safe for concurrent use: the coordinator loop is
// the only writer and reads its length through the coordinator's status lock.
//
// The queue supports re-queueing a failed batch at the FRONT, which preserves
// the original admission order when the write task eventually succeeds: the
// failed requests are older than anything admitted while the write was
// in flight, so they must drain first.
type PendingQueue struct {
	items []WriteRequest
}

// NewPendingQueue creates an empty pending queue. An optional initial slice
// seeds the queue from a restored checkpoint without copying.
func NewPendingQueue(initial []WriteRequest) *PendingQueue {
	return &PendingQueue{items: initial}
}

// Append adds a request to the back of the queue.
func (q *PendingQueue) Append(req WriteRequest) {
	q.items = append(q.items, req)
}

// Drain removes and returns up to n requests from the front of the queue.
// Returns nil when the queue is empty. The returned slice is owned by the
// caller; the queue keeps no reference to it.
func (q *PendingQueue) Drain(n int) []WriteRequest {
	if len(q.items) == 0 || n <= 0 {
		return nil
	}
	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make([]WriteRequest, n)
	copy(batch, q.items[:n])

	// Shift remaining items down so the backing array doesn't pin drained
	// payloads for the lifetime of the queue.
	remaining := copy(q.items, q.items[n:])
	for i := remaining; i < len(q.items); i++ {
		q.items[i] = WriteRequest{}
	}
	q.items = q.items[:remaining]

	return batch
}

// RequeueFront puts a failed batch back at the front of the queue, ahead of
// requests admitted while the batch was in flight. Called when the write task
// exhausts its retries so the requests are not lost and drain first on the
// next flush.
func (q *PendingQueue) RequeueFront(batch []WriteRequest) {
	if len(batch) == 0 {
		return
	}
	q.items = append(append(make([]WriteRequest, 0, len(batch)+len(q.items)), batch...), q.items...)
}

// Len returns the number of requests currently queued.
func (q *PendingQueue) Len() int {
	return len(q.items)
}

// Snapshot returns a copy of the queued requests in order for checkpoint
// capture. The copy is independent of the live queue.
func (q *PendingQueue) Snapshot() []WriteRequest {
	if len(q.items) == 0 {
		return nil
	}
	snap := make([]WriteRequest, len(q.items))
	copy(snap, q.items)
	return snap
}

// Keys returns the idempotency keys of all queued requests in order. Used to
// rebuild the dedup set at handoff so reservations for already-committed
// batches are dropped.
func (q *PendingQueue) Keys() []string {
	if len(q.items) == 0 {
		return nil
	}
	keys := make([]string, len(q.items))
	for i, req := range q.items {
		keys[i] = req.IdempotencyKey
	}
	return keys
}
