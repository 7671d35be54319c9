// Package main implements the batchd daemon.
// batchd is a durable batching coordinator: it admits write requests exactly
// once per idempotency key, groups them into batches on size or time
// triggers, persists each batch through a retrying write task, confirms
// completion back to requesters, and checkpoints its state so history stays
// bounded across long uptimes and restarts.
package main

import (
	"os"

	"github.com/concave-dev/batchd/cmd/batchd/commands"
)

func init() {
	// Setup all commands and flags
	commands.SetupCommands()
}

// Main entry point
func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
