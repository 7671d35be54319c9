// Package logging provides ID formatting utilities for consistent ID display
// across all logging contexts in the batchd coordinator.
//
// Implements intelligent ID truncation that preserves full IDs in debug contexts
// while providing user-friendly short IDs in info/warning contexts, improving
// log readability without sacrificing traceability when detailed debugging is needed.
//
// ID FORMATTING STRATEGY:
//   - Debug logs: Full idempotency keys for complete traceability
//   - Info/Warn/Error/Success logs: Truncated 12-character keys for readability
//   - Consistent formatting across all coordinator components
//
// USAGE PATTERNS:
//   - FormatKey: Format idempotency keys for logging with context-aware truncation
//   - FormatBatchID: Format batch identifiers (already short, passed through)
//
// The context-aware approach ensures operators get readable logs during normal
// operations while preserving full detail when troubleshooting specific issues.
package logging

import (
	"github.com/charmbracelet/log"

	"github.com/concave-dev/batchd/internal/utils"
)

// FormatKey formats an idempotency key for logging based on the current log
// level context. Returns the full key for debug logging to ensure complete
// traceability during troubleshooting, while returning a truncated
// 12-character prefix for other log levels to improve readability in
// operational logs.
//
// Essential for maintaining consistent key display across all coordinator
// logging while balancing operational readability with debugging detail.
//
// Usage: logging.Info("Admitted request %s", logging.FormatKey(key))
func FormatKey(key string) string {
	// If debug level is enabled, show full keys for complete traceability
	// Use stderr logger since debug messages go to stderr
	if stderrLogger.GetLevel() <= log.DebugLevel {
		return key
	}

	// For info/warn/error/success contexts, use truncated keys for readability
	return utils.TruncateIDSafe(key)
}

// FormatBatchID formats a batch identifier for logging. Batch IDs are short
// ("batch-N") and are passed through untruncated; the wrapper exists so call
// sites stay symmetric with FormatKey and can absorb a future format change.
func FormatBatchID(batchID string) string {
	return batchID
}
