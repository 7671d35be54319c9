// Package config provides comprehensive configuration management for the batchd daemon.
//
// This package implements the complete configuration system for the batchd daemon
// including network address management, batching parameters, data directory
// handling, and retry policy settings. It provides centralized configuration
// state with explicit user override tracking for sophisticated default behavior.
//
// CONFIGURATION ARCHITECTURE:
// The configuration system manages three concerns that must agree before the
// daemon can start:
//
//   - HTTP API: REST admission interface (TCP, user-configurable)
//   - Batching: flush thresholds, queue capacity, and handoff limits
//   - Storage: data directory shared by the checkpoint store and the ledger
//
// EXPLICIT OVERRIDE TRACKING:
// The configuration system tracks which values were explicitly set by users
// versus inherited from defaults. This enables sophisticated behavior like:
//
//   - Atomic port binding strategies that respect user preferences
//   - Auto-generated data directories only when the user did not pick one
//   - Validation that accounts for user intent vs automatic configuration
package config

import (
	"time"

	configDefaults "github.com/concave-dev/batchd/internal/config"
	"github.com/concave-dev/batchd/internal/coordinator"
)

// ConfigField represents a configuration field that can be explicitly set
type ConfigField int

const (
	// Configuration field identifiers
	APIAddrField ConfigField = iota
	DataDirField
	LogFileField
)

const (
	// DefaultAPI uses the default bind address so producers on other hosts
	// can reach the admission endpoint without extra configuration.
	// TODO: Add authentication/authorization before production use
	DefaultAPI      = configDefaults.DefaultBindAddr + ":8318" // Default API address
	DefaultDataDir  = configDefaults.DefaultDataDir            // Default data directory
	DefaultLogLevel = configDefaults.DefaultLogLevel           // Default log level
)

// Config holds all daemon configuration values
type Config struct {
	APIAddr string // HTTP API server address
	APIPort int    // HTTP API server port (derived from APIAddr)

	BatchSize       int           // Number of pending requests that triggers a flush
	FlushWait       time.Duration // Max time a non-empty batch waits before flushing
	QueueCapacity   int           // Max pending requests before admissions are rejected
	HandoffEvents   int           // Admitted events between checkpoint handoffs
	HandoffCycleCap int           // Handoff cycles before the breaker forces a reset
	DrainWait       time.Duration // Max time to drain in-flight admissions on handoff

	LogLevel string // Log level: DEBUG, INFO, WARN, ERROR
	LogFile  string // Optional file to redirect logs to
	DataDir  string // Data directory for checkpoint store and ledger
	MaxPorts int    // Maximum number of ports to try when finding available ports (default: 100)

	// Flags to track if values were explicitly set by user
	apiAddrExplicitlySet bool
	dataDirExplicitlySet bool
	logFileExplicitlySet bool
}

// Global configuration instance
var Global Config

// SetExplicitlySet marks a configuration field as explicitly set by the user.
// Enables atomic port binding and data directory strategies that respect user
// preferences versus automatic configuration defaults.
func (c *Config) SetExplicitlySet(field ConfigField, value bool) {
	switch field {
	case APIAddrField:
		c.apiAddrExplicitlySet = value
	case DataDirField:
		c.dataDirExplicitlySet = value
	case LogFileField:
		c.logFileExplicitlySet = value
	}
}

// IsExplicitlySet returns whether a configuration field was explicitly set by the user.
// Used by the daemon to determine when to apply defaults versus respecting
// explicit user configuration for binding and storage decisions.
func (c *Config) IsExplicitlySet(field ConfigField) bool {
	switch field {
	case APIAddrField:
		return c.apiAddrExplicitlySet
	case DataDirField:
		return c.dataDirExplicitlySet
	case LogFileField:
		return c.logFileExplicitlySet
	}
	return false
}

// CoordinatorConfig converts the daemon's batching flags into a coordinator
// configuration. Zero-valued fields fall back to coordinator defaults so the
// daemon only overrides what the user actually set. Negative values are
// passed through so the coordinator's validation rejects them with a clear
// error instead of silently falling back.
func (c *Config) CoordinatorConfig() *coordinator.Config {
	coordConfig := coordinator.DefaultConfig()

	if c.BatchSize != 0 {
		coordConfig.SizeLimit = c.BatchSize
	}
	if c.FlushWait != 0 {
		coordConfig.FlushWait = c.FlushWait
	}
	if c.QueueCapacity != 0 {
		coordConfig.QueueCapacity = c.QueueCapacity
	}
	if c.HandoffEvents != 0 {
		coordConfig.HandoffEventLimit = c.HandoffEvents
	}
	if c.HandoffCycleCap != 0 {
		coordConfig.HandoffCycleCap = c.HandoffCycleCap
	}
	if c.DrainWait != 0 {
		coordConfig.DrainWait = c.DrainWait
	}

	return coordConfig
}
