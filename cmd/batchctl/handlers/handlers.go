// Package handlers provides command handler functions for batchctl.
//
// This package contains all the command execution logic for batchctl commands,
// organized by resource type for maintainability and clean separation of concerns.
//
// The package is organized as follows:
// - request.go: Write request operations (submit with optional wait, key check)
// - info.go: Coordinator status retrieval
//
// All handlers follow consistent patterns:
// - cobra.Command RunE function signature for CLI integration
// - Standardized error handling and logging using the logging package
// - Consistent output formatting through the display package
// - Clean separation between API communication and presentation logic
// - Connection-refused detection with actionable hints when batchd is down
//
// The handlers coordinate between the requester client, display functions,
// and user input while maintaining clean architectural boundaries and a
// consistent user experience across all batchctl commands.
package handlers
