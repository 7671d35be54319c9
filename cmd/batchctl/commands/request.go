// Package commands contains all CLI command definitions for batchctl.
//
// This file implements write request commands for the batching coordinator.
// Provides CLI interfaces for submitting requests, waiting for batch
// confirmations, and probing key reservation state through REST API calls.
//
// REQUEST COMMAND STRUCTURE:
// The request commands follow the resource-based hierarchy pattern:
//   - request submit: Submit a write request for batching
//   - request check: Check whether an idempotency key is still reserved
//
// SUBMISSION SEMANTICS:
// Submissions are idempotent per key: resubmitting the same key while it is
// pending or mid-write returns the duplicate outcome instead of queueing a
// second copy. When no key is given the client derives a deterministic key
// from the originator and payload, so blind retries of the same payload are
// safe as well.
package commands

import (
	"github.com/spf13/cobra"
)

// Request command (parent command for write request operations)
var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Submit and inspect write requests on the coordinator",
	Long: `Commands for working with write requests on the batchd coordinator.

This command group provides operations for submitting requests into the
batching pipeline, waiting for batch confirmations, and checking whether
an idempotency key is still reserved (pending or mid-write).`,
}

// Request submit command
var requestSubmitCmd = &cobra.Command{
	Use:   "submit [flags]",
	Short: "Submit a write request for batching",
	Long: `Submit a write request to the batchd coordinator.

The request joins the pending batch and is written out when the batch fills
or the flush timer fires. Submissions are admitted at most once per
idempotency key; when no key is given, a deterministic key is derived from
the originator and payload so retries dedup instead of double-writing.

With --wait, batchctl starts a local confirmation listener, advertises it on
the submission, and blocks until the coordinator confirms the batch.`,
	Example: `  # Submit with a derived key
  batchctl request submit --payload='{"metric":"cpu","value":0.93}'

  # Submit with an explicit idempotency key
  batchctl request submit --key=sensor-42-0051 --payload='{"value":1}'

  # Read the payload from a file (use - for stdin)
  batchctl request submit --payload-file=event.json

  # Submit and wait for the batch confirmation
  batchctl request submit --payload='{"value":1}' --wait --wait-timeout=60`,
	Args: cobra.NoArgs,
	// RunE will be set by the main package that imports this
}

// Request check command
var requestCheckCmd = &cobra.Command{
	Use:   "check KEY",
	Short: "Check whether an idempotency key is still reserved",
	Long: `Check whether an idempotency key is currently reserved on the
coordinator, meaning its request is pending or part of an in-flight batch.

A key stops being reserved once its batch is written successfully, after
which the same key admits a fresh request again.`,
	Example: `  # Check a key
  batchctl request check sensor-42-0051

  # Check a key on a remote coordinator
  batchctl --api=192.168.1.100:8318 request check sensor-42-0051`,
	Args: cobra.ExactArgs(1),
	// RunE will be set by the main package that imports this
}

// SetupRequestCommands wires the request subcommands into the parent command
func SetupRequestCommands() {
	requestCmd.AddCommand(requestSubmitCmd)
	requestCmd.AddCommand(requestCheckCmd)
}

// GetRequestCommands returns the request subcommands for flag and handler assignment
func GetRequestCommands() (*cobra.Command, *cobra.Command) {
	return requestSubmitCmd, requestCheckCmd
}
