// Package api provides the HTTP API server for the batchd coordinator.
//
// This file defines configuration structures and validation logic for the REST
// API server that exposes request admission, duplicate checks, and coordinator
// status to producers and operational tooling. The configuration system manages
// network binding parameters and the integration point with the coordinator
// itself.
//
// The API configuration serves as the bridge between the coordinator's internal
// state and external clients like batchctl and producer services. Configuration
// validation ensures the coordinator reference is wired and that network
// settings are valid before the server attempts to bind.
//
// TODO: Add support for TLS/HTTPS configuration (cert/key files)
// TODO: Add support for authentication/authorization middleware
package api

import (
	"context"
	"fmt"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/validate"
)

const (
	// DefaultAPIPort is the default port for the HTTP API server
	DefaultAPIPort = 8318
)

// Coordinator provides the interface for request admission and state queries.
// This interface allows the api package to serve coordinator operations
// without depending on the concrete coordinator wiring, which keeps the
// server testable with lightweight fakes.
type Coordinator interface {
	Submit(ctx context.Context, req coordinator.WriteRequest) (coordinator.SubmitResult, error)
	IsDuplicate(key string) bool
	Status() coordinator.Status
}

// Config holds all configuration parameters required for running the HTTP
// API server in front of a batchd coordinator.
//
// The Config struct serves as a dependency injection container: the daemon
// wires the running coordinator in during startup, and tests substitute a
// fake. This keeps initialization ordering explicit and the server decoupled
// from coordinator construction.
type Config struct {
	BindAddr    string      // HTTP server bind address (e.g., "0.0.0.0")
	BindPort    int         // HTTP server bind port
	Coordinator Coordinator // Reference to the running coordinator for admission and queries
}

// DefaultConfig creates a new Config instance with sensible default values
// for local development and testing environments. Uses loopback binding for
// safer local development; the daemon overrides this with its configured
// bind address.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:    "127.0.0.1",
		BindPort:    DefaultAPIPort,
		Coordinator: nil, // Must be set by caller
	}
}

// Validate performs comprehensive validation of all configuration parameters
// to ensure the API server can start successfully. Early validation helps
// operators identify configuration problems before the server attempts to
// bind, improving deployment reliability.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if c.Coordinator == nil {
		return fmt.Errorf("coordinator cannot be nil")
	}

	return nil
}
