package api

import (
	"testing"
)

// TestConfig_Validate_Valid tests Config.Validate() with valid configuration
func TestConfig_Validate_Valid(t *testing.T) {
	config := &Config{
		BindAddr:    "127.0.0.1",
		BindPort:    8080,
		Coordinator: stubCoordinator{},
	}

	err := config.Validate()
	if err != nil {
		t.Errorf("Config.Validate() = %v, want nil", err)
	}
}

// TestConfig_Validate_Invalid tests Config.Validate() with key invalid cases
func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name: "empty bind address",
			config: &Config{
				BindAddr:    "",
				BindPort:    8080,
				Coordinator: stubCoordinator{},
			},
		},
		{
			name: "invalid port",
			config: &Config{
				BindAddr:    "127.0.0.1",
				BindPort:    0,
				Coordinator: stubCoordinator{},
			},
		},
		{
			name: "invalid port high",
			config: &Config{
				BindAddr:    "127.0.0.1",
				BindPort:    99999,
				Coordinator: stubCoordinator{},
			},
		},
		{
			name: "nil coordinator",
			config: &Config{
				BindAddr:    "127.0.0.1",
				BindPort:    8080,
				Coordinator: nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if err == nil {
				t.Errorf("Config.Validate() = nil, want error for %s", tt.name)
			}
		})
	}
}

// TestDefaultConfig tests default configuration values
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BindAddr != "127.0.0.1" {
		t.Errorf("DefaultConfig() BindAddr = %q, want \"127.0.0.1\"", config.BindAddr)
	}
	if config.BindPort != DefaultAPIPort {
		t.Errorf("DefaultConfig() BindPort = %d, want %d", config.BindPort, DefaultAPIPort)
	}
	if config.Coordinator != nil {
		t.Error("DefaultConfig() Coordinator should be nil until wired by the daemon")
	}
}
