package coordinator

import (
	"testing"
)

func makeRequests(keys ...string) []WriteRequest {
	reqs := make([]WriteRequest, len(keys))
	for i, k := range keys {
		reqs[i] = WriteRequest{IdempotencyKey: k}
	}
	return reqs
}

// TestQueueAppendDrain tests FIFO ordering through Append and Drain
func TestQueueAppendDrain(t *testing.T) {
	q := NewPendingQueue(nil)
	for _, req := range makeRequests("a", "b", "c") {
		q.Append(req)
	}

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	batch := q.Drain(2)
	if len(batch) != 2 {
		t.Fatalf("Drain(2) returned %d items, want 2", len(batch))
	}
	if batch[0].IdempotencyKey != "a" || batch[1].IdempotencyKey != "b" {
		t.Errorf("Drain(2) = [%s, %s], want [a, b]", batch[0].IdempotencyKey, batch[1].IdempotencyKey)
	}
	if q.Len() != 1 {
		t.Errorf("Len() after drain = %d, want 1", q.Len())
	}

	rest := q.Drain(10)
	if len(rest) != 1 || rest[0].IdempotencyKey != "c" {
		t.Errorf("Drain(10) should return remaining [c], got %v", rest)
	}
}

// TestQueueDrainEmpty tests Drain on an empty queue
func TestQueueDrainEmpty(t *testing.T) {
	q := NewPendingQueue(nil)
	if batch := q.Drain(5); batch != nil {
		t.Errorf("Drain on empty queue = %v, want nil", batch)
	}
	if batch := q.Drain(0); batch != nil {
		t.Errorf("Drain(0) = %v, want nil", batch)
	}
}

// TestQueueRequeueFront tests that a failed batch drains before newer work
func TestQueueRequeueFront(t *testing.T) {
	q := NewPendingQueue(nil)
	for _, req := range makeRequests("a", "b", "c", "d") {
		q.Append(req)
	}

	failed := q.Drain(2) // [a, b]
	q.Append(makeRequests("e")[0])
	q.RequeueFront(failed)

	wantOrder := []string{"a", "b", "c", "d", "e"}
	got := q.Drain(q.Len())
	if len(got) != len(wantOrder) {
		t.Fatalf("queue has %d items, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].IdempotencyKey != want {
			t.Errorf("position %d = %s, want %s", i, got[i].IdempotencyKey, want)
		}
	}
}

// TestQueueRequeueFrontEmpty tests RequeueFront with an empty batch
func TestQueueRequeueFrontEmpty(t *testing.T) {
	q := NewPendingQueue(makeRequests("a"))
	q.RequeueFront(nil)
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

// TestQueueSnapshotIndependence tests that Snapshot copies are detached
func TestQueueSnapshotIndependence(t *testing.T) {
	q := NewPendingQueue(makeRequests("a", "b"))
	snap := q.Snapshot()
	q.Drain(2)

	if len(snap) != 2 {
		t.Fatalf("snapshot has %d items, want 2", len(snap))
	}
	if snap[0].IdempotencyKey != "a" || snap[1].IdempotencyKey != "b" {
		t.Errorf("snapshot = [%s, %s], want [a, b]", snap[0].IdempotencyKey, snap[1].IdempotencyKey)
	}
	if q.Snapshot() != nil {
		t.Errorf("Snapshot of drained queue should be nil")
	}
}

// TestQueueKeys tests key extraction for dedup set rebuilds
func TestQueueKeys(t *testing.T) {
	q := NewPendingQueue(makeRequests("x", "y"))
	keys := q.Keys()
	if len(keys) != 2 || keys[0] != "x" || keys[1] != "y" {
		t.Errorf("Keys() = %v, want [x y]", keys)
	}

	empty := NewPendingQueue(nil)
	if empty.Keys() != nil {
		t.Errorf("Keys() on empty queue should be nil")
	}
}
