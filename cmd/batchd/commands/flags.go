// Package commands contains Cobra CLI command definitions for batchd.
package commands

import (
	"github.com/concave-dev/batchd/cmd/batchd/config"
	"github.com/spf13/cobra"
)

// SetupFlags configures all command line flags for the daemon
func SetupFlags(cmd *cobra.Command) {
	// API flags
	cmd.Flags().StringVar(&config.Global.APIAddr, "api", config.DefaultAPI,
		"Address and port for HTTP API server (e.g., "+config.DefaultAPI+")\n"+
			"If not specified, defaults to "+config.DefaultAPI)
	cmd.Flags().StringVar(&config.Global.DataDir, "data-dir", config.DefaultDataDir,
		"Directory for persistent data storage (auto-configures to ./data/timestamp when not specified)")

	// Batching flags
	cmd.Flags().IntVar(&config.Global.BatchSize, "batch-size", 0,
		"Number of pending requests that triggers an immediate flush (default 100)")
	cmd.Flags().DurationVar(&config.Global.FlushWait, "flush-wait", 0,
		"Maximum time a non-empty batch waits before a timeout flush (default 20s)")
	cmd.Flags().IntVar(&config.Global.QueueCapacity, "queue-capacity", 0,
		"Maximum pending requests before new admissions are rejected with backpressure (default 1000)\n"+
			"Must be at least the batch size, otherwise the size trigger can never fire")

	// Handoff flags
	cmd.Flags().IntVar(&config.Global.HandoffEvents, "handoff-events", 0,
		"Admitted events between checkpoint handoffs (default 5000)")
	cmd.Flags().IntVar(&config.Global.HandoffCycleCap, "handoff-cycle-cap", 0,
		"Handoff cycles before the breaker forces a flush and resets the chain (default 10)")
	cmd.Flags().DurationVar(&config.Global.DrainWait, "drain-wait", 0,
		"Maximum time to drain in-flight admissions before a handoff proceeds (default 10s)")

	// Operational flags
	cmd.Flags().StringVar(&config.Global.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	cmd.Flags().StringVar(&config.Global.LogFile, "log-file", "",
		"Redirect logs to the given file instead of stdout (created if missing)")
}

// CheckExplicitFlags checks if flags were explicitly set by the user
func CheckExplicitFlags(cmd *cobra.Command) {
	config.Global.SetExplicitlySet(config.APIAddrField, cmd.Flags().Changed("api"))
	config.Global.SetExplicitlySet(config.DataDirField, cmd.Flags().Changed("data-dir"))
	config.Global.SetExplicitlySet(config.LogFileField, cmd.Flags().Changed("log-file"))
}
