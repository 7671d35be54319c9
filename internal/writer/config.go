// Package writer implements the durable write task behind the batching
// coordinator: a retrying wrapper that owns the backoff policy and a
// Pebble-backed ledger that records committed batches atomically.
package writer

import (
	"time"

	"github.com/concave-dev/batchd/internal/validate"
)

// RetryPolicy controls how the retrying writer paces attempts against the
// backing ledger. Backoff doubles per attempt from the initial delay up to
// the cap, and both individual attempts and the write as a whole carry
// deadlines so a wedged downstream cannot stall the coordinator loop
// indefinitely.
type RetryPolicy struct {
	MaxAttempts       int           `json:"max_attempts" mapstructure:"max_attempts"`             // Attempts before the write is declared failed
	InitialBackoff    time.Duration `json:"initial_backoff" mapstructure:"initial_backoff"`       // Delay after the first failed attempt
	BackoffMultiplier float64       `json:"backoff_multiplier" mapstructure:"backoff_multiplier"` // Growth factor per failed attempt
	MaxBackoff        time.Duration `json:"max_backoff" mapstructure:"max_backoff"`               // Ceiling on any single delay
	AttemptTimeout    time.Duration `json:"attempt_timeout" mapstructure:"attempt_timeout"`       // Deadline per attempt
	OverallTimeout    time.Duration `json:"overall_timeout" mapstructure:"overall_timeout"`       // Deadline for the whole write including backoff
}

// DefaultRetryPolicy returns the production retry configuration: three
// attempts with exponential backoff starting at one second.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
		AttemptTimeout:    30 * time.Second,
		OverallTimeout:    30 * time.Second,
	}
}

// Validate checks retry policy parameters for values that would disable
// retrying or produce shrinking backoff.
func (p *RetryPolicy) Validate() error {
	if err := validate.ValidatePositiveCount(p.MaxAttempts, "max attempts"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(p.InitialBackoff, "initial backoff"); err != nil {
		return err
	}
	if err := validate.ValidateField(p.BackoffMultiplier, "min=1"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(p.MaxBackoff, "max backoff"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(p.AttemptTimeout, "attempt timeout"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(p.OverallTimeout, "overall timeout"); err != nil {
		return err
	}
	return nil
}

// BackoffFor returns the delay to wait after the given zero-based failed
// attempt: initial * multiplier^attempt, capped at MaxBackoff.
func (p *RetryPolicy) BackoffFor(attempt int) time.Duration {
	delay := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
		if delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}
