// Package coordinator implements the durable batching coordinator that admits
// write requests idempotently, groups them into batches by size or time, hands
// batches to an external write task with retries, and fans confirmations back
// out to waiting requesters.
//
// BATCHING MODEL:
// A single loop goroutine owns the pending queue and applies all state
// transitions, so admission, flushing, and handoff never race. Producers reach
// the loop through a buffered mailbox channel; read-only queries (status,
// duplicate checks) read concurrently through locked views.
//
// DURABILITY MODEL:
// The dedup set is the source of truth for what has been accepted but not yet
// durably written. A key enters the set at admission and leaves it only when
// the batch containing it commits. Failed batches return to the front of the
// pending queue with their keys still reserved, so retried submissions are
// recognized as duplicates instead of being written twice.
package coordinator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Batch write status values reported to requesters in confirmation payloads
// and recorded in batch results.
const (
	// StatusSuccess indicates the batch was durably written.
	StatusSuccess = "success"

	// StatusFailure indicates the write task exhausted all retry attempts.
	// The batch has been re-queued and will be written in a later cycle.
	StatusFailure = "failure"
)

// WriteRequest represents a single admitted write operation waiting to be
// flushed as part of a batch. Carries the idempotency key used for duplicate
// detection, the opaque payload handed to the write task, and the callback
// address for confirmation dispatch.
//
// Requests are immutable after admission: the coordinator only moves them
// between the pending queue and in-flight batches, never rewrites them.
type WriteRequest struct {
	IdempotencyKey   string          `json:"idempotency_key"`             // Dedup set membership key
	OriginatorID     string          `json:"originator_id"`               // Producer that submitted the request
	Payload          json.RawMessage `json:"payload"`                     // Opaque record handed to the write task
	RequesterAddress string          `json:"requester_address,omitempty"` // Confirmation callback URL, empty when not waiting
	SubmittedAt      time.Time       `json:"submitted_at"`                // Admission timestamp
	SequenceNumber   uint64          `json:"sequence_number"`             // Monotonic admission order within the coordinator
}

// BatchResult captures the outcome of a batch write for status reporting and
// confirmation fan-out. Delivered to every requester that registered a
// callback address on a request in the batch.
type BatchResult struct {
	BatchID   string    `json:"batch_id"`   // "batch-N" where N counts completed batches
	Status    string    `json:"status"`     // StatusSuccess or StatusFailure
	Count     int       `json:"count"`      // Number of requests written
	WrittenAt time.Time `json:"written_at"` // When the write task reported success
}

// SubmitResult reports the outcome of an admission attempt back to the
// submitting producer. Exactly one of Admitted or Duplicate is true for
// accepted submissions; both are false when the request was rejected.
type SubmitResult struct {
	Admitted       bool   `json:"admitted"`        // Request entered the pending queue
	Duplicate      bool   `json:"duplicate"`       // Key already reserved in the dedup set
	IdempotencyKey string `json:"idempotency_key"` // Key used for dedup, echoed for derived keys
	PendingCount   int    `json:"pending_count"`   // Queue depth after this admission
}

// Status is a point-in-time snapshot of coordinator state served by the
// status query endpoint and the CLI.
type Status struct {
	PendingCount     int `json:"pending_count"`     // Requests waiting in the queue
	BatchesCompleted int `json:"batches_completed"` // Successfully written batches this lifetime
	DedupSetSize     int `json:"dedup_set_size"`    // Keys currently reserved
	HandoffCycle     int `json:"handoff_cycle"`     // Completed handoff generations
	SizeLimit        int `json:"size_limit"`        // Configured batch size trigger
}

// CoordinatorState is the serialized form of everything a successor
// coordinator needs to continue batching without loss or duplication.
// Persisted at each handoff and on shutdown, loaded at daemon boot.
//
// The dedup set is deliberately NOT carried verbatim across handoffs: it is
// rebuilt from the keys of the pending requests, dropping reservations for
// batches that already committed. Keys of in-flight work survive because
// failed batches are re-queued before state is captured.
type CoordinatorState struct {
	Pending          []WriteRequest `json:"pending"`           // Unflushed requests in queue order
	Dedup            []string       `json:"dedup"`             // Reserved idempotency keys
	BatchesCompleted int            `json:"batches_completed"` // Carried so batch IDs stay monotonic
	HandoffCycle     int            `json:"handoff_cycle"`     // Completed handoff generations
	Sequence         uint64         `json:"sequence"`          // Next admission sequence number
}

// DeriveIdempotencyKey computes a deterministic idempotency key from the
// originator identity and payload for producers that don't supply their own.
// The same originator resubmitting the same payload always derives the same
// key, which is what makes retried submissions safe to dedup.
func DeriveIdempotencyKey(originatorID string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(originatorID))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
