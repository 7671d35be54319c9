// Package commands provides the complete command tree implementation for batchctl.
//
// This package defines the hierarchical command structure for the batchd CLI
// tool, implementing a resource-based command architecture similar to kubectl.
// Commands are organized into logical groups that match the coordinator's
// admission and monitoring capabilities.
//
// COMMAND STRUCTURE:
//   - request: Write request operations (submit, check)
//   - info: Coordinator status overview (pending, batches, handoff cycle)
//
// All commands follow consistent patterns with standardized flag handling,
// error messages, and output formatting for reliable coordinator operations.
package commands

import (
	"github.com/spf13/cobra"
)

// Root command
var RootCmd = &cobra.Command{
	Use:   "batchctl",
	Short: "CLI tool for the batchd durable batching coordinator",
	Long: `batchctl is a command-line tool for submitting write requests to a
batchd coordinator and inspecting its state.

Similar to kubectl for Kubernetes, batchctl lets you submit idempotent
write requests, probe whether a key is still pending, wait for batch
confirmations, and inspect coordinator status.`,
	SilenceUsage: true,
	Example: `  # Show coordinator status
  batchctl info

  # Submit a write request (key derived from payload)
  batchctl request submit --payload='{"metric":"cpu","value":0.93}'

  # Submit with an explicit idempotency key
  batchctl request submit --key=sensor-42-0051 --payload='{"value":1}'

  # Submit and wait for the batch confirmation
  batchctl request submit --payload='{"value":1}' --wait

  # Check whether a key is still pending or mid-write
  batchctl request check sensor-42-0051

  # Connect to a remote coordinator
  batchctl --api=192.168.1.100:8318 info

  # Output in JSON format
  batchctl --output=json info
  batchctl -o json request check sensor-42-0051`,
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	// Add all top-level commands to root
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(requestCmd)
}

// SetupGlobalFlags configures all global persistent flags
func SetupGlobalFlags(rootCmd *cobra.Command, apiAddrPtr *string, originatorPtr *string,
	logLevelPtr *string, timeoutPtr *int, verbosePtr *bool, outputPtr *string, defaultAPIAddr string) {
	rootCmd.PersistentFlags().StringVar(apiAddrPtr, "api", defaultAPIAddr,
		"API server address of the batchd coordinator")
	rootCmd.PersistentFlags().StringVar(originatorPtr, "originator", "",
		"Originator identifier sent with submissions (defaults to hostname)")
	rootCmd.PersistentFlags().StringVar(logLevelPtr, "log-level", "ERROR",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().IntVar(timeoutPtr, "timeout", 8,
		"Connection timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(verbosePtr, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVarP(outputPtr, "output", "o", "table",
		"Output format: table, json")
}
