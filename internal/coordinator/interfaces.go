// Package coordinator implements the durable batching coordinator that admits
// write requests idempotently, groups them into batches, and hands them to an
// external write task.
//
// This file defines the interfaces the coordinator consumes. Declaring them
// here lets the writer, confirmation, and checkpoint packages depend on the
// coordinator's types without creating circular dependencies, and lets tests
// substitute failure-injecting doubles for the real implementations.
package coordinator

import "context"

// WriteTask performs the durable write of a flushed batch. Implementations
// own their internal retry policy: the coordinator makes exactly one Write
// call per flush and treats an error return as exhausted retries.
//
// A nil error means every request in the batch is durably recorded and the
// coordinator may release the batch's dedup reservations. An error means
// NOTHING may be assumed written; the coordinator re-queues the whole batch
// and keeps its keys reserved.
type WriteTask interface {
	Write(ctx context.Context, batchID string, requests []WriteRequest) (*BatchResult, error)
}

// ConfirmationDispatcher notifies requesters after their batch commits.
// Dispatch fans out to every request that registered a callback address and
// returns once all attempts settle, successfully or not. Implementations make
// at most one attempt per requester: the batch is already durable, and
// requesters that miss a confirmation detect it by timeout and re-query.
type ConfirmationDispatcher interface {
	Dispatch(ctx context.Context, result BatchResult, requests []WriteRequest)
}

// StateSink persists coordinator state at handoff boundaries and shutdown so
// a successor generation or a restarted daemon can resume batching without
// losing pending work or dedup reservations.
type StateSink interface {
	Persist(state *CoordinatorState) error
}
