// Package utils contains utility functions for the batchd daemon.
// This includes port pre-binding helpers and network utilities used during
// daemon startup.
package utils

import (
	"fmt"
	"net"

	"github.com/concave-dev/batchd/cmd/batchd/config"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/netutil"
)

// PreBindServiceListener handles the common pattern of pre-binding TCP listeners
// for services before any of them start. Binding up front reserves the port
// atomically, so a second daemon instance starting at the same moment cannot
// steal it between discovery and actual service startup.
//
// Parameters:
//   - serviceName: human-readable name for logging (e.g., "API")
//   - portBinder: the PortBinder instance to use for binding
//   - explicitlySet: whether the user explicitly set the address/port
//   - addr: the address to bind to
//   - port: the port to bind to (or starting port for fallback)
//   - originalPort: the original default port for logging purposes
//
// Returns the bound listener and actual port, or error if binding fails.
func PreBindServiceListener(serviceName string, portBinder *netutil.PortBinder, explicitlySet bool, addr string, port int, originalPort int) (net.Listener, int, error) {
	if !explicitlySet {
		// Use fallback binding for auto-discovered ports
		logging.Info("Pre-binding %s listener starting from port %d", serviceName, originalPort)

		listener, actualPort, err := portBinder.BindTCPWithFallbackAndLimit(addr, port, GetMaxPorts())
		if err != nil {
			return nil, 0, fmt.Errorf("failed to pre-bind %s listener: %w", serviceName, err)
		}

		if actualPort != originalPort {
			logging.Warn("Default %s port %d was busy, pre-bound to port %d", serviceName, originalPort, actualPort)
		} else {
			logging.Info("Pre-bound %s listener to port %d", serviceName, actualPort)
		}

		return listener, actualPort, nil
	}

	// Explicit port - bind directly
	logging.Info("Pre-binding %s listener to explicit port %d", serviceName, port)

	listener, err := portBinder.BindTCP(addr, port)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to pre-bind %s listener to %s:%d: %w", serviceName, addr, port, err)
	}

	return listener, port, nil
}

// GetMaxPorts returns the configured maximum number of ports to try during port
// discovery. This allows the port allocation logic to respect the user's
// MAX_PORTS configuration when many daemon instances share a host.
func GetMaxPorts() int {
	if config.Global.MaxPorts <= 0 {
		return 100 // Default fallback if somehow not set
	}
	return config.Global.MaxPorts
}
