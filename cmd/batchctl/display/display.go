// Package display provides output formatting and display functions for batchctl.
//
// This package handles all user-facing output formatting including table and
// JSON output for submission outcomes, key checks, batch confirmations, and
// coordinator status. It provides consistent formatting across all batchctl
// commands with support for different output formats and proper error
// handling for display operations.
//
// The display functions handle:
// - Submission outcome formatting with duplicate annotation
// - Key reservation check results
// - Batch confirmation details after --wait submissions
// - Coordinator status snapshots
// - Consistent table formatting using text/tabwriter
// - JSON output with proper indentation and error handling
//
// All display functions respect global configuration for output format and
// verbosity while maintaining clean separation from business logic.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/concave-dev/batchd/cmd/batchctl/config"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/requester"
	internalutils "github.com/concave-dev/batchd/internal/utils"
)

// writeJSON encodes a value as indented JSON on stdout. Shared by every
// display function's JSON path.
func writeJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logging.Error("Failed to encode JSON: %v", err)
		fmt.Println("Error encoding JSON output")
	}
}

// displayKey shows the full idempotency key in verbose mode and a truncated
// prefix otherwise. Derived keys are 64 hex characters, which would dominate
// table output.
func displayKey(key string) string {
	if config.Global.Verbose {
		return key
	}
	return internalutils.TruncateIDSafe(key)
}

// DisplaySubmitOutcome displays the coordinator's admission response for a
// submitted request. Distinguishes fresh admissions from duplicate hits so
// producers can tell whether their request joined the batch or was already
// reserved by an earlier submission.
func DisplaySubmitOutcome(outcome *requester.SubmitOutcome) {
	if config.Global.Output == "json" {
		writeJSON(outcome)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "KEY\tADMITTED\tDUPLICATE\tPENDING")
	fmt.Fprintf(w, "%s\t%t\t%t\t%d\n",
		displayKey(outcome.IdempotencyKey), outcome.Admitted, outcome.Duplicate, outcome.PendingCount)
}

// DisplayKeyCheck displays whether an idempotency key is currently reserved
// on the coordinator (pending or part of an in-flight batch).
func DisplayKeyCheck(key string, duplicate bool) {
	if config.Global.Output == "json" {
		writeJSON(map[string]any{
			"idempotency_key": key,
			"duplicate":       duplicate,
		})
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "KEY\tRESERVED")
	fmt.Fprintf(w, "%s\t%t\n", displayKey(key), duplicate)
}

// DisplayConfirmation displays a batch confirmation received after a --wait
// submission, including the batch identifier, terminal status, and how many
// requests the batch carried.
func DisplayConfirmation(conf *requester.Confirmation) {
	if config.Global.Output == "json" {
		writeJSON(conf)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "BATCH\tSTATUS\tCOUNT\tWRITTEN AT")
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
		conf.BatchID, conf.Status, conf.Count, conf.WrittenAt.Format("2006-01-02 15:04:05"))
}

// DisplayStatus displays the coordinator status snapshot with queue depth,
// batch history, and handoff progress. Enables operators to quickly assess
// coordinator load, spot backpressure building up, and confirm that handoffs
// are keeping the dedup history bounded.
func DisplayStatus(status *requester.Status) {
	if config.Global.Output == "json" {
		writeJSON(status)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PENDING\tBATCHES\tDEDUP KEYS\tHANDOFF CYCLE\tBATCH SIZE")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n",
		status.PendingCount, status.BatchesCompleted, status.DedupSetSize,
		status.HandoffCycle, status.SizeLimit)
}
