package validate

import (
	"testing"
	"time"
)

// TestParseBindAddress tests ParseBindAddress function
func TestParseBindAddress(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		wantHost    string
		wantPort    int
		description string
	}{
		{
			name:        "valid IPv4 address",
			input:       "192.168.1.10:8318",
			expectError: false,
			wantHost:    "192.168.1.10",
			wantPort:    8318,
			description: "standard IPv4 host:port should parse",
		},
		{
			name:        "all interfaces",
			input:       "0.0.0.0:8318",
			expectError: false,
			wantHost:    "0.0.0.0",
			wantPort:    8318,
			description: "wildcard bind address should parse",
		},
		{
			name:        "loopback",
			input:       "127.0.0.1:9090",
			expectError: false,
			wantHost:    "127.0.0.1",
			wantPort:    9090,
			description: "loopback address should parse",
		},
		{
			name:        "IPv6 address",
			input:       "[::1]:8318",
			expectError: false,
			wantHost:    "::1",
			wantPort:    8318,
			description: "bracketed IPv6 host:port should parse",
		},
		{
			name:        "empty address",
			input:       "",
			expectError: true,
			description: "empty address should be invalid",
		},
		{
			name:        "missing port",
			input:       "192.168.1.10",
			expectError: true,
			description: "address without port should be invalid",
		},
		{
			name:        "non-numeric port",
			input:       "192.168.1.10:abc",
			expectError: true,
			description: "non-numeric port should be invalid",
		},
		{
			name:        "port out of range",
			input:       "192.168.1.10:70000",
			expectError: true,
			description: "port above 65535 should be invalid",
		},
		{
			name:        "hostname instead of IP",
			input:       "batchd.internal:8318",
			expectError: true,
			description: "hostnames are rejected, bind addresses must be IPs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseBindAddress(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseBindAddress(%q) expected error but got none: %s", tt.input, tt.description)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseBindAddress(%q) unexpected error: %v (%s)", tt.input, err, tt.description)
				return
			}
			if addr.Host != tt.wantHost {
				t.Errorf("ParseBindAddress(%q) host = %q, want %q", tt.input, addr.Host, tt.wantHost)
			}
			if addr.Port != tt.wantPort {
				t.Errorf("ParseBindAddress(%q) port = %d, want %d", tt.input, addr.Port, tt.wantPort)
			}
		})
	}
}

// TestNetworkAddressString tests NetworkAddress.String formatting
func TestNetworkAddressString(t *testing.T) {
	addr := NetworkAddress{Host: "10.0.0.1", Port: 8318}
	got := addr.String()
	want := "10.0.0.1:8318"
	if got != want {
		t.Errorf("NetworkAddress.String() = %q, want %q", got, want)
	}
}

// TestValidatePortRange tests ValidatePortRange function
func TestValidatePortRange(t *testing.T) {
	tests := []struct {
		name        string
		port        int
		expectError bool
	}{
		{"minimum valid port", 1, false},
		{"common API port", 8318, false},
		{"maximum valid port", 65535, false},
		{"port zero", 0, true},
		{"negative port", -1, true},
		{"port above range", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePortRange(tt.port)
			if tt.expectError && err == nil {
				t.Errorf("ValidatePortRange(%d) expected error but got none", tt.port)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidatePortRange(%d) unexpected error: %v", tt.port, err)
			}
		})
	}
}

// TestValidateRequiredString tests ValidateRequiredString function
func TestValidateRequiredString(t *testing.T) {
	if err := ValidateRequiredString("data-dir", "data directory"); err != nil {
		t.Errorf("ValidateRequiredString with value unexpected error: %v", err)
	}
	if err := ValidateRequiredString("", "data directory"); err == nil {
		t.Errorf("ValidateRequiredString with empty value expected error but got none")
	}
}

// TestValidatePositiveTimeout tests ValidatePositiveTimeout function
func TestValidatePositiveTimeout(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		expectError bool
	}{
		{"positive timeout", 20 * time.Second, false},
		{"one nanosecond", time.Nanosecond, false},
		{"zero timeout", 0, true},
		{"negative timeout", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveTimeout(tt.timeout, "flush wait")
			if tt.expectError && err == nil {
				t.Errorf("ValidatePositiveTimeout(%v) expected error but got none", tt.timeout)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidatePositiveTimeout(%v) unexpected error: %v", tt.timeout, err)
			}
		})
	}
}

// TestValidatePositiveCount tests ValidatePositiveCount function
func TestValidatePositiveCount(t *testing.T) {
	if err := ValidatePositiveCount(100, "batch size limit"); err != nil {
		t.Errorf("ValidatePositiveCount(100) unexpected error: %v", err)
	}
	if err := ValidatePositiveCount(0, "batch size limit"); err == nil {
		t.Errorf("ValidatePositiveCount(0) expected error but got none")
	}
	if err := ValidatePositiveCount(-5, "batch size limit"); err == nil {
		t.Errorf("ValidatePositiveCount(-5) expected error but got none")
	}
}
