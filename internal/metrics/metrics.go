// Package metrics provides Prometheus instrumentation for the batching
// coordinator, exposing admission, flush, write, confirmation, and handoff
// counters for operational monitoring.
//
// All collectors are registered at package load via promauto so the daemon's
// /metrics endpoint serves them without explicit wiring. Metric names follow
// the batchd_ namespace convention and use labels only where cardinality is
// bounded (flush trigger, confirmation outcome).
//
// METRIC COVERAGE:
//   - Admission: accepted and duplicate-rejected request counts
//   - Flushing: batch counts by trigger (size, timeout, drain) and batch sizes
//   - Writing: write durations, retry counts, and exhausted-retry failures
//   - Confirmation: dispatch outcomes per requester callback
//   - Handoff: completed handoff cycles and circuit breaker trips
//
// Gauges for queue depth and dedup set size are updated by the coordinator
// after each state transition, giving dashboards a live view of backlog growth
// between flushes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "batchd"

var (
	// RequestsAdmitted counts write requests accepted into the pending queue.
	// Duplicates are excluded; compare against RequestsDuplicate to measure
	// producer retry pressure.
	RequestsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_admitted_total",
		Help:      "Total number of write requests admitted to the pending queue",
	})

	// RequestsDuplicate counts submissions rejected because their idempotency
	// key was already present in the dedup set.
	RequestsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_duplicate_total",
		Help:      "Total number of submissions rejected as duplicates",
	})

	// RequestsRejected counts submissions rejected before admission for
	// validation failures or queue backpressure.
	RequestsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_rejected_total",
		Help:      "Total number of submissions rejected before admission",
	}, []string{"reason"})

	// BatchesFlushed counts completed batch writes by the trigger that caused
	// the flush: "size" when the queue hit the batch size limit, "timeout"
	// when the flush wait expired, "drain" during handoff force-flushes.
	BatchesFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_flushed_total",
		Help:      "Total number of batches flushed, labeled by trigger",
	}, []string{"trigger"})

	// BatchSize observes the number of requests in each flushed batch.
	// A distribution skewed toward the size limit indicates sustained load;
	// small batches indicate timeout-driven flushes under light traffic.
	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_size",
		Help:      "Number of requests per flushed batch",
		Buckets:   []float64{1, 5, 10, 25, 50, 75, 100, 150, 200},
	})

	// WriteDuration observes end-to-end batch write latency including retries.
	WriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_write_duration_seconds",
		Help:      "Batch write duration in seconds, including retry attempts",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	// WriteRetries counts individual write attempts that failed and were
	// retried with backoff.
	WriteRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_write_retries_total",
		Help:      "Total number of failed write attempts that were retried",
	})

	// WriteFailures counts batches whose write task exhausted all retry
	// attempts. These batches are re-queued at the front of the pending queue
	// and their keys remain in the dedup set.
	WriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_write_failures_total",
		Help:      "Total number of batches that exhausted write retries",
	})

	// ConfirmationsSent counts confirmation dispatch outcomes per requester
	// callback. Failed confirmations are not retried: the batch is already
	// durable and requesters detect missed confirmations by timeout.
	ConfirmationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmations_sent_total",
		Help:      "Total number of confirmation callbacks dispatched, labeled by outcome",
	}, []string{"status"})

	// Handoffs counts completed checkpoint handoff cycles.
	Handoffs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handoffs_total",
		Help:      "Total number of completed checkpoint handoff cycles",
	})

	// HandoffBreakerTrips counts handoffs skipped because the cycle cap was
	// reached. A non-zero value means the coordinator fell back to flush-and-
	// reset instead of carrying state forward.
	HandoffBreakerTrips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handoff_breaker_trips_total",
		Help:      "Total number of handoffs skipped by the cycle circuit breaker",
	})

	// PendingRequests tracks the current depth of the pending queue.
	PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_requests",
		Help:      "Current number of requests in the pending queue",
	})

	// DedupSetSize tracks the current number of idempotency keys held in the
	// dedup set. This exceeds PendingRequests while a batch is mid-write,
	// since in-flight keys stay reserved until the write succeeds.
	DedupSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dedup_set_size",
		Help:      "Current number of idempotency keys in the dedup set",
	})
)
