// Package config provides common default configuration values shared across
// batchd components (coordinator, checkpoint, HTTP API). This centralizes
// configuration management and ensures consistency across the daemon.
package config

const (
	// DefaultBindAddr is the default bind address for the HTTP API server
	// Using 0.0.0.0 allows binding to all available network interfaces
	// TODO: Add support for IPv6 bind addresses (::)
	DefaultBindAddr = "0.0.0.0"

	// DefaultLogLevel is the default log level for all components
	// INFO provides good balance of visibility without verbose debug output
	DefaultLogLevel = "INFO"

	// DefaultDataDir is the default data directory for persistent storage
	// Holds the checkpoint state store and the pebble-backed ledger
	DefaultDataDir = "./data"
)
