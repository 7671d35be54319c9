package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/metrics"
)

// QueueFullError represents an error when the pending queue is at capacity
// and cannot accept more requests. Used to trigger HTTP 429 responses with
// backpressure so producers slow down instead of piling into memory.
type QueueFullError struct {
	Current  int // Current queue length
	Capacity int // Maximum queue capacity
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("pending queue full: %d/%d", e.Current, e.Capacity)
}

// submission pairs an admission request with the channel its producer is
// waiting on. The loop goroutine replies exactly once per submission.
type submission struct {
	req   WriteRequest
	reply chan submitReply
}

type submitReply struct {
	result SubmitResult
	err    error
}

// Coordinator is the durable batching coordinator. A single loop goroutine
// owns the pending queue and applies every state transition: admissions
// arrive through a buffered mailbox, flushes are triggered by queue size or
// elapsed time, and handoffs checkpoint state once enough events have been
// applied.
//
// FLUSH TRIGGERS:
// - Size: the queue reached the configured size limit (checked first)
// - Timeout: the flush wait elapsed with requests pending
// - Drain: a handoff or shutdown is force-flushing remaining work
//
// FAILURE HANDLING:
// A batch whose write task exhausts retries returns to the FRONT of the
// pending queue with its dedup keys still reserved. The next flush picks it
// up again, so no admitted request is ever dropped and producer retries in
// the meantime are recognized as duplicates.
type Coordinator struct {
	config *Config

	writer    WriteTask
	confirmer ConfirmationDispatcher
	sink      StateSink

	mailbox chan submission
	queue   *PendingQueue
	dedup   *DedupSet

	// Counters mirrored for concurrent status queries. The loop goroutine
	// writes them under mu after each transition; handlers read them with
	// RLock so status never touches the unsynchronized queue directly.
	mu               sync.RWMutex
	pendingCount     int
	batchesCompleted int
	handoffCycle     int

	// Loop-private state, never read outside the loop goroutine
	sequence           uint64
	eventsSinceHandoff int

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a coordinator from configuration and its collaborators,
// optionally resuming from a restored checkpoint state. Passing a nil state
// starts a fresh coordinator with an empty queue and dedup set.
//
// The restored state seeds the pending queue, dedup set, batch counter, and
// handoff cycle so batch IDs stay monotonic and duplicate detection survives
// daemon restarts.
func New(config *Config, writer WriteTask, confirmer ConfirmationDispatcher, sink StateSink, state *CoordinatorState) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinator config: %w", err)
	}
	if writer == nil {
		return nil, fmt.Errorf("write task is required")
	}

	c := &Coordinator{
		config:    config,
		writer:    writer,
		confirmer: confirmer,
		sink:      sink,
		mailbox:   make(chan submission, config.MailboxCapacity()),
		queue:     NewPendingQueue(nil),
		dedup:     NewDedupSet(nil),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	if state != nil {
		c.queue = NewPendingQueue(state.Pending)
		c.dedup = NewDedupSet(state.Dedup)
		c.batchesCompleted = state.BatchesCompleted
		c.handoffCycle = state.HandoffCycle
		c.sequence = state.Sequence
		c.pendingCount = c.queue.Len()
		logging.Info("Coordinator: Resumed from checkpoint: %d pending, %d keys reserved, cycle %d",
			c.pendingCount, c.dedup.Len(), c.handoffCycle)
	}

	metrics.PendingRequests.Set(float64(c.pendingCount))
	metrics.DedupSetSize.Set(float64(c.dedup.Len()))

	return c, nil
}

// Start launches the coordinator loop goroutine. Admissions submitted before
// Start are buffered in the mailbox and applied once the loop begins.
func (c *Coordinator) Start() {
	go c.run()
	logging.Info("Coordinator: Started batching loop (size limit: %d, flush wait: %v)",
		c.config.SizeLimit, c.config.FlushWait)
}

// Stop gracefully shuts down the coordinator: drains buffered admissions,
// force-flushes pending work, and persists a final checkpoint so a restarted
// daemon resumes without loss. Blocks until the loop goroutine exits or the
// context expires.
func (c *Coordinator) Stop(ctx context.Context) error {
	close(c.stopCh)
	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("coordinator shutdown timed out: %w", ctx.Err())
	}
}

// Submit admits a write request for batching. Returns a duplicate result
// without queueing when the idempotency key is already reserved, and a
// QueueFullError when the pending queue or mailbox is at capacity.
//
// Safe for concurrent use: the request is handed to the loop goroutine
// through the mailbox and Submit blocks until the loop replies or the
// context expires.
func (c *Coordinator) Submit(ctx context.Context, req WriteRequest) (SubmitResult, error) {
	sub := submission{req: req, reply: make(chan submitReply, 1)}

	select {
	case c.mailbox <- sub:
	default:
		// Mailbox full means the loop is far behind; reject immediately
		// rather than blocking the producer.
		metrics.RequestsRejected.WithLabelValues("backpressure").Inc()
		return SubmitResult{}, &QueueFullError{Current: len(c.mailbox), Capacity: cap(c.mailbox)}
	}

	select {
	case r := <-sub.reply:
		return r.result, r.err
	case <-ctx.Done():
		return SubmitResult{}, ctx.Err()
	case <-c.doneCh:
		return SubmitResult{}, fmt.Errorf("coordinator stopped")
	}
}

// IsDuplicate reports whether an idempotency key is currently reserved,
// meaning a request with this key is pending or mid-write. Served directly
// from the dedup set so producers can probe before submitting payloads.
func (c *Coordinator) IsDuplicate(key string) bool {
	return c.dedup.Contains(key)
}

// Status returns a point-in-time snapshot of coordinator state for the
// status endpoint and CLI. Safe for concurrent use.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		PendingCount:     c.pendingCount,
		BatchesCompleted: c.batchesCompleted,
		DedupSetSize:     c.dedup.Len(),
		HandoffCycle:     c.handoffCycle,
		SizeLimit:        c.config.SizeLimit,
	}
}

// run is the coordinator loop. It is the only goroutine that touches the
// pending queue, which is what makes the dedup membership invariant easy to
// maintain: every admission, flush, requeue, and handoff happens in program
// order here.
func (c *Coordinator) run() {
	defer close(c.doneCh)

	timer := time.NewTimer(c.config.FlushWait)
	defer timer.Stop()

	for {
		// Size trigger is checked before waiting so a full queue flushes
		// immediately even when admissions and the timer race.
		if c.queue.Len() >= c.config.SizeLimit {
			ok := c.flush("size")
			resetTimer(timer, c.config.FlushWait)
			if ok {
				c.maybeHandoff()
				continue
			}
			// Failed flush re-queued the batch. Fall through to the select
			// and wait for the next trigger instead of spinning on the size
			// check while the downstream is struggling.
		}

		select {
		case sub := <-c.mailbox:
			c.admit(sub)

		case <-timer.C:
			// Empty queue on timeout is a no-op: nothing to write, no batch
			// ID consumed.
			if c.queue.Len() > 0 {
				c.flush("timeout")
			}
			timer.Reset(c.config.FlushWait)

		case <-c.stopCh:
			c.shutdown()
			return
		}

		c.maybeHandoff()
	}
}

// admit applies a single admission inside the loop goroutine: backpressure
// check, duplicate check, then queue append. Replies exactly once.
func (c *Coordinator) admit(sub submission) {
	if c.queue.Len() >= c.config.QueueCapacity {
		metrics.RequestsRejected.WithLabelValues("backpressure").Inc()
		sub.reply <- submitReply{err: &QueueFullError{Current: c.queue.Len(), Capacity: c.config.QueueCapacity}}
		return
	}

	req := sub.req
	if !c.dedup.Add(req.IdempotencyKey) {
		metrics.RequestsDuplicate.Inc()
		logging.Debug("Coordinator: Duplicate submission for key %s", logging.FormatKey(req.IdempotencyKey))
		sub.reply <- submitReply{result: SubmitResult{
			Duplicate:      true,
			IdempotencyKey: req.IdempotencyKey,
			PendingCount:   c.queue.Len(),
		}}
		return
	}

	c.sequence++
	req.SequenceNumber = c.sequence
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}
	c.queue.Append(req)
	c.eventsSinceHandoff++

	c.mu.Lock()
	c.pendingCount = c.queue.Len()
	c.mu.Unlock()

	metrics.RequestsAdmitted.Inc()
	metrics.PendingRequests.Set(float64(c.queue.Len()))
	metrics.DedupSetSize.Set(float64(c.dedup.Len()))

	logging.Debug("Coordinator: Admitted key %s (pending: %d)",
		logging.FormatKey(req.IdempotencyKey), c.queue.Len())

	sub.reply <- submitReply{result: SubmitResult{
		Admitted:       true,
		IdempotencyKey: req.IdempotencyKey,
		PendingCount:   c.queue.Len(),
	}}
}

// flush drains up to one batch from the pending queue and runs the write
// task. Returns true when the batch committed, false when the write task
// exhausted its retries and the batch was re-queued. Must only be called
// from the loop goroutine.
func (c *Coordinator) flush(trigger string) bool {
	batch := c.queue.Drain(c.config.SizeLimit)
	if len(batch) == 0 {
		return true
	}

	batchID := fmt.Sprintf("batch-%d", c.batchesCompleted+1)
	logging.Info("Coordinator: Flushing %s with %d requests (trigger: %s)",
		logging.FormatBatchID(batchID), len(batch), trigger)

	start := time.Now()
	result, err := c.writer.Write(context.Background(), batchID, batch)
	metrics.WriteDuration.Observe(time.Since(start).Seconds())
	metrics.BatchSize.Observe(float64(len(batch)))

	if err != nil {
		// Retries exhausted: the batch goes back to the FRONT of the queue
		// and its keys stay reserved so producer retries remain duplicates.
		metrics.WriteFailures.Inc()
		c.queue.RequeueFront(batch)
		c.syncCounters()
		logging.Error("Coordinator: %s failed after retries, re-queued %d requests: %v",
			logging.FormatBatchID(batchID), len(batch), err)
		return false
	}

	keys := make([]string, len(batch))
	for i, req := range batch {
		keys[i] = req.IdempotencyKey
	}
	c.dedup.RemoveAll(keys)

	c.mu.Lock()
	c.batchesCompleted++
	c.pendingCount = c.queue.Len()
	c.mu.Unlock()
	c.eventsSinceHandoff++

	metrics.BatchesFlushed.WithLabelValues(trigger).Inc()
	metrics.PendingRequests.Set(float64(c.queue.Len()))
	metrics.DedupSetSize.Set(float64(c.dedup.Len()))

	logging.Success("Coordinator: %s committed %d requests in %v",
		logging.FormatBatchID(result.BatchID), result.Count, time.Since(start).Round(time.Millisecond))

	// Confirmations settle before the next batch is considered: the result
	// references a committed batch, so blocking here cannot deadlock, and it
	// keeps requesters from observing batch N+1 before batch N's callbacks.
	if c.confirmer != nil {
		c.confirmer.Dispatch(context.Background(), *result, batch)
	}

	return true
}

// syncCounters refreshes the mirrored status counters and gauges after a
// queue mutation that didn't go through admit or a successful flush.
func (c *Coordinator) syncCounters() {
	c.mu.Lock()
	c.pendingCount = c.queue.Len()
	c.mu.Unlock()
	metrics.PendingRequests.Set(float64(c.queue.Len()))
	metrics.DedupSetSize.Set(float64(c.dedup.Len()))
}

// maybeHandoff checkpoints coordinator state once enough events have been
// applied since the last handoff, bounding how much history a single
// generation accumulates. A queue pinned at capacity also forces a handoff:
// admissions are already being rejected at that point, and a failing writer
// can hold the queue there indefinitely without ever advancing the event
// counter, so the backlog must reach a checkpoint on its own trigger.
//
// CIRCUIT BREAKER:
// After the configured number of consecutive handoff generations the chain
// is broken instead of extended: remaining work is force-flushed, the cycle
// counter resets to zero, and no checkpoint is written. This caps unbounded
// handoff chains when a misbehaving producer keeps the queue perpetually
// busy.
func (c *Coordinator) maybeHandoff() {
	queueFull := c.queue.Len() >= c.config.QueueCapacity
	if c.eventsSinceHandoff < c.config.HandoffEventLimit && !queueFull {
		return
	}
	if queueFull {
		logging.Warn("Coordinator: Pending queue at capacity (%d), forcing handoff",
			c.queue.Len())
	}

	if c.handoffCycle >= c.config.HandoffCycleCap {
		logging.Warn("Coordinator: Handoff cycle cap (%d) reached, breaking the chain with a forced flush",
			c.config.HandoffCycleCap)
		metrics.HandoffBreakerTrips.Inc()
		c.flushAll()
		c.mu.Lock()
		c.handoffCycle = 0
		c.mu.Unlock()
		c.eventsSinceHandoff = 0
		return
	}

	// Drain buffered admissions first so they are captured in this
	// generation's checkpoint rather than racing the handoff.
	c.drainMailbox(c.config.DrainWait)
	c.flushAll()

	// The dedup set is rebuilt from whatever survived the forced flush.
	// Reservations for committed batches drop out; keys of a re-queued
	// failed batch are carried forward with their requests.
	c.dedup.Replace(c.queue.Keys())

	c.mu.Lock()
	c.handoffCycle++
	cycle := c.handoffCycle
	c.mu.Unlock()
	c.eventsSinceHandoff = 0

	if err := c.persist(); err != nil {
		logging.Error("Coordinator: Failed to persist handoff checkpoint: %v", err)
	}

	metrics.Handoffs.Inc()
	metrics.DedupSetSize.Set(float64(c.dedup.Len()))
	logging.Info("Coordinator: Handoff cycle %d complete (%d pending carried forward)",
		cycle, c.queue.Len())
}

// flushAll force-flushes the pending queue in size-limit chunks. Stops after
// the first failed write since retrying immediately in a tight loop would
// hammer a struggling downstream; the re-queued batch waits for the next
// trigger.
func (c *Coordinator) flushAll() {
	for c.queue.Len() > 0 {
		if !c.flush("drain") {
			return
		}
	}
}

// drainMailbox applies buffered admissions until the mailbox is empty or the
// deadline passes. Flushes between admissions when the size trigger fires so
// a full mailbox cannot overrun the queue capacity.
func (c *Coordinator) drainMailbox(wait time.Duration) {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case sub := <-c.mailbox:
			c.admit(sub)
			if c.queue.Len() >= c.config.SizeLimit {
				c.flush("size")
			}
		default:
			return
		}
	}
}

// shutdown performs the final drain on Stop: buffered admissions are applied,
// pending work is force-flushed, and a final checkpoint is persisted so a
// restarted daemon resumes exactly where this one left off.
func (c *Coordinator) shutdown() {
	c.drainMailbox(c.config.DrainWait)
	c.flushAll()

	if err := c.persist(); err != nil {
		logging.Error("Coordinator: Failed to persist shutdown checkpoint: %v", err)
	}

	logging.Info("Coordinator: Stopped batching loop (%d pending persisted)", c.queue.Len())
}

// persist captures current state and writes it through the sink. No-op when
// the coordinator was built without a sink, which tests use freely.
func (c *Coordinator) persist() error {
	if c.sink == nil {
		return nil
	}

	c.mu.RLock()
	state := &CoordinatorState{
		Pending:          c.queue.Snapshot(),
		Dedup:            c.dedup.Keys(),
		BatchesCompleted: c.batchesCompleted,
		HandoffCycle:     c.handoffCycle,
		Sequence:         c.sequence,
	}
	c.mu.RUnlock()

	return c.sink.Persist(state)
}

// resetTimer safely resets a timer that may have fired or been partially
// drained, avoiding the stale-tick foot-gun in time.Timer reuse.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
