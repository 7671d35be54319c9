// Package utils provides common utility functions for the batchd coordinator.
//
// This file implements unified ID generation and truncation functionality used
// across the daemon for creating and displaying unique identifiers. Provides
// consistent ID formats for originators, submissions, and other resources while
// eliminating code duplication.
//
// ID GENERATION STRATEGY:
// Uses crypto/rand for high-quality random data generation to ensure uniqueness
// across independent producer processes and prevent collisions. All generated
// IDs follow the same 12-character hexadecimal format for consistency and
// readability.
//
// USAGE PATTERNS:
// - Originator IDs: Default producer identification when none is supplied
// - Submission IDs: Correlating test submissions issued by batchctl
// - Truncation: Shortening long idempotency keys for display and logging

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID creates a unique 12-character hex identifier for coordinator
// resources. Uses crypto/rand to ensure uniqueness across independent
// producers and prevent collisions.
//
// Essential for resource identification, logging correlation, and API
// operations where resources need to be uniquely referenced. The 12-character
// format balances uniqueness with human readability in logs and interfaces.
//
// Returns format: "a1b2c3d4e5f6" (12 hex characters, similar to Docker short IDs)
func GenerateID() (string, error) {
	// Generate 6 bytes of random data (12 hex characters)
	bytes := make([]byte, 6)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// TruncateIDSafe shortens a long identifier to 12 characters for display
// purposes without panicking on short inputs. Idempotency keys are full
// SHA-256 hex digests; the 12-character prefix is sufficient to correlate
// log entries and CLI output with API lookups.
func TruncateIDSafe(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
