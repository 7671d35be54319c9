package coordinator

import (
	"fmt"
	"time"

	"github.com/concave-dev/batchd/internal/validate"
)

// Config holds all configuration parameters for the batching coordinator.
// Defines flush triggers, queue capacity, and handoff pacing that control
// how admitted requests are grouped into batches and how often coordinator
// state is checkpointed to bound history growth.
//
// Essential for tuning batching behavior based on deployment requirements:
// the size limit and flush wait trade latency against write amplification,
// while the handoff parameters bound how much history a single coordinator
// generation accumulates before carrying its state forward.
type Config struct {
	// Flush triggers
	SizeLimit int           `json:"size_limit" mapstructure:"size_limit"` // Flush when pending queue reaches this many requests
	FlushWait time.Duration `json:"flush_wait" mapstructure:"flush_wait"` // Flush whatever is pending after this long

	// Admission backpressure
	QueueCapacity int `json:"queue_capacity" mapstructure:"queue_capacity"` // Reject admissions when pending queue reaches this depth

	// Handoff pacing
	HandoffEventLimit int           `json:"handoff_event_limit" mapstructure:"handoff_event_limit"` // Events applied before a handoff is forced
	HandoffCycleCap   int           `json:"handoff_cycle_cap" mapstructure:"handoff_cycle_cap"`     // Circuit breaker: max consecutive handoff generations
	DrainWait         time.Duration `json:"drain_wait" mapstructure:"drain_wait"`                   // Max time to drain in-flight admissions before handoff
}

// DefaultConfig returns a Config instance with production-ready default
// values. The size limit and flush wait match the expected producer traffic
// pattern: full batches under sustained load, bounded latency under trickle
// load.
func DefaultConfig() *Config {
	return &Config{
		SizeLimit:         100,              // Full batch under sustained load
		FlushWait:         20 * time.Second, // Latency bound for partial batches
		QueueCapacity:     1000,             // Backpressure threshold for admissions
		HandoffEventLimit: 5000,             // Checkpoint before history grows unbounded
		HandoffCycleCap:   10,               // Break the handoff chain after 10 generations
		DrainWait:         10 * time.Second, // Admission drain deadline before handoff
	}
}

// Validate performs comprehensive validation of coordinator configuration
// to catch misconfigurations before the loop starts. Checks that flush
// triggers are positive and that the queue capacity can hold at least one
// full batch, since a capacity below the size limit would make the size
// trigger unreachable.
func (c *Config) Validate() error {
	if err := validate.ValidatePositiveCount(c.SizeLimit, "size limit"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(c.FlushWait, "flush wait"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveCount(c.QueueCapacity, "queue capacity"); err != nil {
		return err
	}
	if c.QueueCapacity < c.SizeLimit {
		return fmt.Errorf("queue capacity (%d) must be at least the size limit (%d)",
			c.QueueCapacity, c.SizeLimit)
	}
	if err := validate.ValidatePositiveCount(c.HandoffEventLimit, "handoff event limit"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveCount(c.HandoffCycleCap, "handoff cycle cap"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(c.DrainWait, "drain wait"); err != nil {
		return err
	}
	return nil
}

// MailboxCapacity returns the admission mailbox buffer size. Sized to absorb
// a burst of several full batches while a write is in flight without
// triggering backpressure on producers.
func (c *Config) MailboxCapacity() int {
	return 4 * c.SizeLimit
}
