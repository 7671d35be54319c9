// Package config provides configuration management for the batchctl CLI.
package config

import "github.com/concave-dev/batchd/internal/version"

const (
	DefaultAPIAddr = "127.0.0.1:8318" // Default API server address (routable)
)

// Version returns the current batchctl CLI version from the centralized version package
var Version = version.BatchctlVersion

// Global holds the global CLI configuration
var Global struct {
	APIAddr    string // Address of batchd API server to connect to
	Originator string // Originator identifier sent with submissions
	LogLevel   string // Log level for CLI operations
	Timeout    int    // Connection timeout in seconds
	Verbose    bool   // Show verbose output
	Output     string // Output format: table, json
}

// Request holds the request command configuration
var Request struct {
	Payload     string // Inline JSON payload for submission
	PayloadFile string // Path to a JSON payload file ("-" reads stdin)
	Key         string // Explicit idempotency key (derived from payload when empty)
	Wait        bool   // Block until the batch confirmation arrives
	WaitTimeout int    // Seconds to wait for a confirmation before giving up
	ListenAddr  string // Bind address for the confirmation listener
}
