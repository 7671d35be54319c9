// Package validate provides network validation utilities for batchd endpoints,
// ensuring proper network configuration for the coordinator API and requester
// confirmation callbacks.
//
// Implements IP address, port range, and address format validation using the
// go-playground/validator library. Prevents network configuration errors that
// could cause the API server to fail binding or confirmations to be dispatched
// to malformed addresses.
//
// VALIDATION FEATURES:
//   - IP Address: IPv4 and IPv6 format validation
//   - Port Range: Valid port numbers (0-65535)
//   - Format: Proper "host:port" address formatting
//   - URLs: Requester confirmation endpoint validation
//
// Used for validating bind addresses and requester callback endpoints throughout
// daemon startup, request admission, and confirmation dispatch.
package validate

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Using built-in validators: ip, url, min, max - no custom registration needed
}

// NetworkAddress represents a validated network address with host and port
// components for service endpoints. Provides a standardized structure for network
// addresses used throughout the daemon with built-in validation tags.
//
// The structure ensures all network addresses are well formed before being used
// for API binding or outbound connections. Uses struct tags for automatic
// validation via the go-playground/validator library.
type NetworkAddress struct {
	Host string `validate:"required,ip"`              // Built-in IP validator
	Port int    `validate:"required,min=0,max=65535"` // Built-in range validator
}

// String returns the network address in standard "host:port" format suitable for
// network connections, configuration display, and logging.
func (na NetworkAddress) String() string {
	return fmt.Sprintf("%s:%d", na.Host, na.Port)
}

// ParseBindAddress parses and validates a "host:port" address string for API
// binding. Provides comprehensive validation including format checking, IP
// address validation, and port range verification.
//
// Essential for processing user-provided network addresses from configuration
// files and CLI arguments. Ensures the bind endpoint is properly formatted and
// valid before attempting network operations, preventing runtime failures and
// providing clear error messages for troubleshooting.
//
// Returns a validated NetworkAddress structure or detailed error information for
// debugging network configuration issues during daemon startup.
func ParseBindAddress(addr string) (*NetworkAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	netAddr := &NetworkAddress{
		Host: host,
		Port: port,
	}

	// Validate using struct tags
	if err := validate.Struct(netAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return netAddr, nil
}

// ValidateField validates individual values against specified validation rules
// using the go-playground/validator library. Provides flexible validation for
// single fields without requiring struct definitions, useful for dynamic
// validation scenarios.
//
// Supports all built-in validation tags including IP addresses, URLs, numeric
// ranges, and required field validation. Essential for validating individual
// configuration parameters and user inputs throughout the daemon.
//
// Example: ValidateField("192.168.1.1", "required,ip")
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// All validation uses built-in validators from go-playground/validator:
// - ip: validates IP addresses using net.ParseIP internally
// - url: validates URL format for confirmation endpoints
// - min/max: validates numeric ranges
// - required: ensures non-empty values
// Use ValidateField() for single field validation or struct tags for batch validation
