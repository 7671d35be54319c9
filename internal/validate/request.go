// Package validate provides input validation utilities for batchd admission
// operations, ensuring data integrity before requests enter the pending queue.
//
// Implements validation rules for idempotency keys, originator identifiers, and
// requester callback endpoints. Prevents malformed submissions from polluting the
// dedup set or causing confirmation dispatch failures after a batch commits.
//
// VALIDATION COVERAGE:
//   - Idempotency Keys: Format and length validation for dedup set entries
//   - Originator IDs: Format validation for request source identifiers
//   - Requester Addresses: URL validation for confirmation callbacks
//
// Used by the API admission handlers and the requester client to ensure
// consistent input validation across all submission entry points.

package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxIdempotencyKeyLength bounds key size so dedup set entries and checkpoint
// records stay compact. Keys derived from originator identity hash to 64 hex
// characters, well under this cap.
const MaxIdempotencyKeyLength = 256

// IdempotencyKeyFormat validates idempotency keys before they are checked
// against the dedup set. Ensures keys are non-empty, within length bounds, and
// free of whitespace or control characters.
//
// Necessary because keys are used as storage identifiers in checkpoint records
// and appear in log output and status queries. Malformed keys would corrupt
// persisted state or break duplicate detection across handoff cycles.
func IdempotencyKeyFormat(key string) error {
	if key == "" {
		return fmt.Errorf("idempotency key cannot be empty")
	}

	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("idempotency key exceeds %d characters", MaxIdempotencyKeyLength)
	}

	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("idempotency key cannot contain whitespace or control characters")
		}
	}

	return nil
}

// OriginatorIDFormat validates originator identifiers against naming requirements.
// Ensures identifiers contain only [a-z0-9_-] and don't start/end with special
// characters.
//
// Necessary for stable key derivation, file system operations, and readable log
// output across the coordinator and administrative tools.
func OriginatorIDFormat(id string) error {
	if id == "" {
		return fmt.Errorf("originator ID cannot be empty")
	}

	// Check if ID contains only allowed characters: lowercase letters, numbers, hyphens, underscores
	validIDRegex := regexp.MustCompile(`^[a-z0-9_-]+$`)
	if !validIDRegex.MatchString(id) {
		return fmt.Errorf("originator ID '%s' must contain only lowercase letters [a-z], numbers [0-9], hyphens (-), and underscores (_)", id)
	}

	// Ensure it starts and ends with alphanumeric (not - or _)
	if strings.HasPrefix(id, "-") || strings.HasPrefix(id, "_") ||
		strings.HasSuffix(id, "-") || strings.HasSuffix(id, "_") {
		return fmt.Errorf("originator ID '%s' cannot start or end with hyphen (-) or underscore (_)", id)
	}

	return nil
}

// RequesterAddress validates a confirmation callback endpoint. Accepts full
// HTTP/HTTPS URLs since confirmations are dispatched as HTTP posts to the
// address each requester registered at submission time.
//
// An empty address is allowed: requesters that don't wait for confirmations
// submit without a callback and poll the status endpoint instead.
func RequesterAddress(addr string) error {
	if addr == "" {
		return nil
	}

	if err := ValidateField(addr, "url"); err != nil {
		return fmt.Errorf("invalid requester address '%s'", addr)
	}

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		return fmt.Errorf("requester address '%s' must use http or https scheme", addr)
	}

	return nil
}
