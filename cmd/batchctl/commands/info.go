// Package commands provides coordinator information command definitions for batchctl.
//
// This file implements the coordinator status command that displays the
// pending queue depth, completed batch count, dedup set size, and handoff
// cycle for operational visibility.
//
// INFO COMMAND:
//   - info: Shows the coordinator status snapshot
//
// The info command provides operators with a unified view of coordinator
// state for monitoring, troubleshooting, and capacity assessment.

package commands

import (
	"github.com/spf13/cobra"
)

// Info command (coordinator status)
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show coordinator status",
	Long: `Show the coordinator status snapshot including pending request count,
completed batches, dedup set size, handoff cycle, and the configured
batch size limit.

This provides a complete overview of coordinator state and load.`,
	Example: `  # Show coordinator status
  batchctl info

  # Show status from a specific API server
  batchctl --api=192.168.1.100:8318 info

  # Output in JSON format
  batchctl -o json info

  # Show verbose output during connection
  batchctl --verbose info`,
	Args: cobra.NoArgs,
	// RunE will be set by the main package that imports this
}

// GetInfoCommand returns the info command for handler assignment
func GetInfoCommand() *cobra.Command {
	return infoCmd
}
