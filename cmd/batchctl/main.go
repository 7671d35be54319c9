// Package main provides the entry point for the batchd CLI tool (batchctl).
//
// This package implements the main executable for the coordinator management
// CLI that enables producers and operators to interact with a batchd
// coordinator. The CLI provides commands for submitting write requests,
// waiting for batch confirmations, probing key reservations, and inspecting
// coordinator status.
//
// CLI ARCHITECTURE:
// The main package orchestrates the complete CLI system including:
//   - Command Structure: Hierarchical resource-based commands (request, info)
//   - Handler Integration: Command execution with API client communication
//   - Flag Management: Global and command-specific configuration options
//   - Configuration Binding: CLI state management and validation pipeline
//
// COMMAND CATEGORIES:
//   - Request Commands: Submission with optional confirmation wait, key checks
//   - Info Commands: Coordinator status and load visibility
//
// INITIALIZATION FLOW:
// 1. Command structure setup with hierarchical organization
// 2. Flag configuration for global and command-specific options
// 3. Handler assignment linking commands to API operations
// 4. Configuration validation and CLI state management
// 5. Command execution with proper error handling and exit codes
//
// The CLI follows kubectl-style patterns for intuitive coordinator management
// with consistent interfaces, comprehensive help text, and production-ready
// reliability.
package main

import (
	"os"

	"github.com/concave-dev/batchd/cmd/batchctl/commands"
	"github.com/concave-dev/batchd/cmd/batchctl/config"
	"github.com/concave-dev/batchd/cmd/batchctl/handlers"
	"github.com/spf13/cobra"
)

func init() {
	// Get root command from commands package
	rootCmd := commands.RootCmd

	// Set version and validation
	rootCmd.Version = config.Version
	rootCmd.PersistentPreRunE = config.ValidateGlobalFlags

	// Setup all command structures
	commands.SetupCommands()
	commands.SetupRequestCommands()

	// Setup global flags
	commands.SetupGlobalFlags(rootCmd, &config.Global.APIAddr, &config.Global.Originator,
		&config.Global.LogLevel, &config.Global.Timeout, &config.Global.Verbose,
		&config.Global.Output, config.DefaultAPIAddr)

	// Setup request command flags
	submitCmd, checkCmd := commands.GetRequestCommands()
	setupRequestFlags(submitCmd, checkCmd)

	// Setup command handlers
	setupCommandHandlers()
}

// setupCommandHandlers assigns RunE functions to commands
func setupCommandHandlers() {
	submitCmd, checkCmd := commands.GetRequestCommands()
	infoCmd := commands.GetInfoCommand()

	// Assign handlers
	submitCmd.RunE = handlers.HandleSubmit
	checkCmd.RunE = handlers.HandleCheck
	infoCmd.RunE = handlers.HandleInfo
}

// setupRequestFlags configures flags for request commands
func setupRequestFlags(submitCmd, _ /* checkCmd */ *cobra.Command) {
	// Request submit flags
	submitCmd.Flags().StringVar(&config.Request.Payload, "payload", "",
		"Inline JSON payload to submit")
	submitCmd.Flags().StringVar(&config.Request.PayloadFile, "payload-file", "",
		"Path to a JSON payload file (use - for stdin)")
	submitCmd.Flags().StringVar(&config.Request.Key, "key", "",
		"Idempotency key (derived from originator and payload when empty)")
	submitCmd.Flags().BoolVarP(&config.Request.Wait, "wait", "w", false,
		"Wait for the batch confirmation before exiting")
	submitCmd.Flags().IntVar(&config.Request.WaitTimeout, "wait-timeout", 0,
		"Seconds to wait for a confirmation (default 120)")
	submitCmd.Flags().StringVar(&config.Request.ListenAddr, "listen", "127.0.0.1:0",
		"Bind address for the confirmation listener used by --wait")

	// Check command uses global flags only for now
	// checkCmd parameter reserved for future flag additions
}

// main is the main entry point
func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
