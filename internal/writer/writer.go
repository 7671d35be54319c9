package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/metrics"
)

// RetryingWriter wraps a backing write task with exponential backoff retries.
// The coordinator makes one Write call per flush; this wrapper turns that
// call into up to MaxAttempts attempts against the backing ledger, each with
// its own deadline, under one overall deadline.
//
// FAILURE SEMANTICS:
// An error return means every attempt failed and the coordinator should
// treat the batch as unwritten. The backing ledger commits batches
// atomically, so a failed attempt leaves no partial state that a later
// attempt or a later flush could double-write.
type RetryingWriter struct {
	policy  *RetryPolicy
	backing coordinator.WriteTask
}

// NewRetryingWriter wraps a backing write task with the given retry policy.
func NewRetryingWriter(policy *RetryPolicy, backing coordinator.WriteTask) (*RetryingWriter, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}
	if backing == nil {
		return nil, fmt.Errorf("backing write task is required")
	}
	return &RetryingWriter{policy: policy, backing: backing}, nil
}

// Write runs the backing write task with retries. Returns the first
// successful result, or the last attempt's error once attempts or the
// overall deadline are exhausted.
func (w *RetryingWriter) Write(ctx context.Context, batchID string, requests []coordinator.WriteRequest) (*coordinator.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.policy.OverallTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < w.policy.MaxAttempts; attempt++ {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, w.policy.AttemptTimeout)
		result, err := w.backing.Write(attemptCtx, batchID, requests)
		attemptCancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == w.policy.MaxAttempts-1 {
			break
		}

		delay := w.policy.BackoffFor(attempt)
		metrics.WriteRetries.Inc()
		logging.Warn("Writer: Attempt %d/%d for %s failed, retrying in %v: %v",
			attempt+1, w.policy.MaxAttempts, logging.FormatBatchID(batchID), delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("write of %s abandoned during backoff: %w", batchID, ctx.Err())
		}
	}

	return nil, fmt.Errorf("write of %s failed after %d attempts: %w",
		batchID, w.policy.MaxAttempts, lastErr)
}
