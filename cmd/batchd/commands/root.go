// Package commands provides the complete CLI command structure for the batchd daemon.
//
// This package implements the root command and command hierarchy for batchd,
// the durable batching coordinator daemon. It manages the CLI interface for
// daemon configuration, batching parameters, and operational settings through
// a comprehensive flag system and validation pipeline.
//
// COMMAND ARCHITECTURE:
// The daemon uses a simple root command structure with extensive flag support:
//   - Root Command: Main daemon execution with batching configuration
//   - Flag System: Network, batching, handoff, and operational settings
//   - Validation Pipeline: Pre-execution configuration validation and setup
//   - Logo Display: Professional daemon startup presentation
//
// DAEMON CAPABILITIES:
// The CLI starts the coordinator that admits write requests exactly once,
// groups them into batches on size or time triggers, persists them through a
// retrying write task, and hands its state off to checkpoints so history
// stays bounded across long uptimes and restarts.
//
// TODO: Future expansion will include subcommands for checkpoint inspection
// and ledger maintenance tasks as the daemon functionality grows.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/concave-dev/batchd/cmd/batchd/config"
	"github.com/concave-dev/batchd/cmd/batchd/daemon"
	"github.com/concave-dev/batchd/cmd/batchd/utils"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/version"
	"github.com/spf13/cobra"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists
// This function is called during daemon shutdown to ensure proper cleanup
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Log to stderr since we're cleaning up the log file
			// Use fmt.Fprintf instead of logging to avoid circular dependency
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for the batchd daemon
var RootCmd = &cobra.Command{
	Use:   "batchd",
	Short: "Durable batching coordinator for idempotent write admission",
	Long: `batchd admits write requests exactly once, groups them into batches on
size or time triggers, and persists each batch through a retrying write task.

Requesters get confirmations when their batch lands, and the coordinator
checkpoints its state periodically so restarts resume where they left off.

Auto-configures the data directory when not explicitly specified.`,
	Version:      version.BatchdVersion,
	SilenceUsage: true, // Don't show usage on errors
	Example: `  	  # Start with defaults - auto-configures data directory
	  batchd

	  # Explicit configuration (advanced usage)
	  batchd --api=0.0.0.0:8318 --data-dir=/var/lib/batchd

	  # Tune batching for low-latency producers
	  batchd --batch-size=25 --flush-wait=5s

	  # Checkpoint more aggressively on a busy host
	  batchd --handoff-events=1000 --handoff-cycle-cap=5`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Display logo first, before any validation or logging
		utils.DisplayLogo(version.BatchdVersion)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Check which flags were explicitly set by user
		CheckExplicitFlags(cmd)

		// Setup log file redirection if --log-file was specified
		if config.Global.IsExplicitlySet(config.LogFileField) && config.Global.LogFile != "" {
			// Create parent directories if they don't exist
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			// Open/create log file with append mode
			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}

			// Redirect all logging to the file
			logging.SetOutput(logFileHandle)
		}

		// Configure logging level immediately after flags are parsed to prevent
		// INFO logs during config initialization when ERROR level is requested
		logging.SetLevel(config.Global.LogLevel)
		// Initialize configuration from environment variables and defaults
		config.InitializeConfig()
		// Re-apply logging level after config initialization to pick up
		// any environment variable overrides that may have changed the log level
		logging.SetLevel(config.Global.LogLevel)
		// Validate configuration and ensure log file cleanup on validation failure
		if err := config.ValidateConfig(); err != nil {
			// Close log file handle if validation fails to prevent resource leak
			CleanupLogFile()
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ensure log file cleanup on exit
		defer CleanupLogFile()
		return daemon.Run()
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	// Setup all flags
	SetupFlags(RootCmd)

	// Currently only has the root command
	// Future subcommands can be added here
}
