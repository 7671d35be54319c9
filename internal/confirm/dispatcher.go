// Package confirm dispatches batch confirmations back to waiting requesters
// after their batch commits. Fan-out is concurrent across requesters and
// settles before the coordinator moves on, but each requester gets AT MOST
// ONE delivery attempt: the batch is already durable, so a missed callback
// costs the requester a timeout and a status re-query, never data.
package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/metrics"
	"github.com/concave-dev/batchd/internal/version"
)

// DefaultTimeout bounds a single confirmation POST. Requesters run a local
// HTTP listener, so anything slower than this is effectively unreachable.
const DefaultTimeout = 5 * time.Second

// Confirmation is the payload delivered to each requester's callback
// address when a batch containing its request commits.
type Confirmation struct {
	BatchID        string    `json:"batch_id"`
	Status         string    `json:"status"`
	Count          int       `json:"count"`
	BatchSize      int       `json:"batch_size"`
	WrittenAt      time.Time `json:"written_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// Dispatcher delivers confirmations over HTTP using a shared resty client.
// Implements coordinator.ConfirmationDispatcher.
type Dispatcher struct {
	client *resty.Client
}

// NewDispatcher creates a confirmation dispatcher with the given per-attempt
// timeout. Pass zero to use DefaultTimeout.
//
// The client is deliberately configured WITHOUT retries. Confirmation is a
// courtesy notification about an already-durable batch; retrying a callback
// that a requester has stopped listening on would only delay the next batch.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "batchd/"+version.BatchdVersion).
		SetRetryCount(0)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Confirm: Posting confirmation to %s", req.URL)
		return nil
	})

	return &Dispatcher{client: client}
}

// Dispatch fans a batch result out to every request that registered a
// callback address and returns once every attempt has settled. Failures are
// counted and logged but never retried or propagated: the coordinator's
// durability guarantees don't depend on confirmation delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, result coordinator.BatchResult, requests []coordinator.WriteRequest) {
	batchSize := len(requests)

	var wg sync.WaitGroup
	for _, req := range requests {
		if req.RequesterAddress == "" {
			continue
		}

		wg.Add(1)
		go func(req coordinator.WriteRequest) {
			defer wg.Done()
			d.deliver(ctx, result, batchSize, req)
		}(req)
	}
	wg.Wait()
}

// deliver makes the single confirmation attempt for one requester.
func (d *Dispatcher) deliver(ctx context.Context, result coordinator.BatchResult, batchSize int, req coordinator.WriteRequest) {
	confirmation := Confirmation{
		BatchID:        result.BatchID,
		Status:         result.Status,
		Count:          result.Count,
		BatchSize:      batchSize,
		WrittenAt:      result.WrittenAt,
		IdempotencyKey: req.IdempotencyKey,
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(confirmation).
		Post(req.RequesterAddress)

	if err != nil {
		metrics.ConfirmationsSent.WithLabelValues("error").Inc()
		logging.Warn("Confirm: Failed to reach %s for key %s: %v",
			req.RequesterAddress, logging.FormatKey(req.IdempotencyKey), err)
		return
	}
	if resp.StatusCode() >= 300 {
		metrics.ConfirmationsSent.WithLabelValues("rejected").Inc()
		logging.Warn("Confirm: Requester %s rejected confirmation for key %s with status %d",
			req.RequesterAddress, logging.FormatKey(req.IdempotencyKey), resp.StatusCode())
		return
	}

	metrics.ConfirmationsSent.WithLabelValues("ok").Inc()
	logging.Debug("Confirm: Delivered %s confirmation for key %s",
		result.BatchID, logging.FormatKey(req.IdempotencyKey))
}
