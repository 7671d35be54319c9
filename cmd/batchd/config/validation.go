// Package config handles configuration validation for the batchd daemon.
//
// This package provides comprehensive validation logic for all daemon configuration
// parameters before startup. Validation ensures proper operation by:
//   - Parsing and validating the HTTP API network address
//   - Enforcing port requirements (no OS-assigned ports for the admission endpoint)
//   - Validating batching parameters through the coordinator's own rules
//   - Auto-configuring data directories with timestamp-based naming
//
// The validation process transforms raw configuration values into validated,
// normalized forms ready for service initialization. This prevents common
// misconfigurations that could lead to network binding failures, unbounded
// queues, or checkpoint stores landing in unintended directories.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/validate"
)

// InitializeConfig initializes configuration from environment variables and defaults.
// This function sets up the Global config with proper defaults and environment variable
// overrides before validation runs, ensuring consistent configuration state.
func InitializeConfig() {
	// Initialize DEBUG environment variable override
	if os.Getenv("DEBUG") == "true" {
		Global.LogLevel = "DEBUG"
		logging.Info("DEBUG environment variable detected, setting log level to DEBUG")
	}

	// Initialize MaxPorts: default + environment variable override
	if Global.MaxPorts == 0 {
		Global.MaxPorts = 100
	}
	if maxPortsEnv := os.Getenv("MAX_PORTS"); maxPortsEnv != "" {
		if maxPorts, err := strconv.Atoi(maxPortsEnv); err == nil {
			Global.MaxPorts = maxPorts
			logging.Info("MAX_PORTS environment variable detected, setting max ports to %d", maxPorts)
		} else {
			logging.Warn("Invalid MAX_PORTS environment variable '%s', using default: %d", maxPortsEnv, Global.MaxPorts)
		}
	}
}

// ValidateConfig performs comprehensive validation and normalization of all daemon
// configuration parameters before service startup.
//
// This function orchestrates the complete validation workflow:
//   - Environment variable processing (DEBUG override for development)
//   - HTTP API address parsing and validation
//   - Batching parameter validation via the coordinator's own config rules
//   - Data directory auto-configuration with timestamping
//
// The validation process transforms raw CLI values into normalized, validated
// forms that services can safely use during initialization. This prevents
// runtime failures from malformed addresses, degenerate batch sizes, or queue
// capacities smaller than a single batch.
//
// Returns error for any validation failure with descriptive context to aid debugging.
func ValidateConfig() error {
	// Validate MaxPorts range
	if Global.MaxPorts < 1 || Global.MaxPorts > 10000 {
		logging.Error("Invalid max-ports value: %d (must be between 1 and 10000)", Global.MaxPorts)
		return fmt.Errorf("max-ports must be between 1 and 10000, got: %d", Global.MaxPorts)
	}

	// Parse and validate the API address for the admission endpoint.
	// The address format supports both "host:port" and "port" (defaulting to 0.0.0.0).
	netAddr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid API address: %w", err)
	}

	// Enforce explicit port assignment when the user picked the address.
	// Port 0 (OS-assigned) would leave producers with no stable endpoint.
	if Global.apiAddrExplicitlySet {
		if err := validate.ValidateField(netAddr.Port, "required,min=1,max=65535"); err != nil {
			logging.Error("API port cannot be 0 (auto-assigned) - producers need a stable endpoint")
			return fmt.Errorf("API address requires specific port (not 0): %w", err)
		}
	}

	Global.APIAddr = netAddr.Host
	Global.APIPort = netAddr.Port

	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	// Batching parameters share one set of rules with the coordinator so the
	// CLI and programmatic construction cannot drift apart.
	if err := Global.CoordinatorConfig().Validate(); err != nil {
		logging.Error("Invalid batching configuration: %v", err)
		return fmt.Errorf("invalid batching configuration: %w", err)
	}

	// Configure persistent data directory for checkpoints and the ledger.
	if !Global.dataDirExplicitlySet {
		// Auto-generate timestamped data directory for development workflows.
		// Timestamp-based naming prevents conflicts between test runs and provides
		// clear separation of coordinator states during development and debugging.
		// Production deployments should explicitly set data directories so the
		// daemon can restore from its previous checkpoints after a restart.
		timestamp := time.Now().Format("20060102-150405")
		Global.DataDir = fmt.Sprintf("./data/%s", timestamp)
		logging.Info("Data directory auto-configured: %s", Global.DataDir)
	}

	if Global.DataDir == "" {
		logging.Error("Data directory cannot be empty")
		return fmt.Errorf("data directory cannot be empty")
	}

	return nil
}
