// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the biokey configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Config represents the complete biokey configuration
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
	SecureStore SecureStoreConfig `yaml:"secure_store"`
	Device      DeviceConfig      `yaml:"device"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Prompt      PromptConfig      `yaml:"prompt"`

	Authenticator AuthenticatorConfig `yaml:"authenticator"`
}

// StorageConfig controls where key material and alias mappings live
type StorageConfig struct {
	// Path is the data directory. Empty selects in-memory storage.
	Path string `yaml:"path"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// SecureStoreConfig controls the software secure-store emulation
type SecureStoreConfig struct {
	// SecurityLevel reported for generated keys: software, tee, strongbox.
	SecurityLevel string `yaml:"security_level"`

	// LegacySchema reports classification through the legacy boolean
	// inside_secure_hardware instead of the graded level.
	LegacySchema bool `yaml:"legacy_schema"`

	// InsideSecureHardware is the legacy-schema classification value.
	InsideSecureHardware bool `yaml:"inside_secure_hardware"`

	// BiometryEnrolled simulates at least one enrolled biometric credential.
	BiometryEnrolled bool `yaml:"biometry_enrolled"`
}

// DeviceConfig identifies the device class for vendor quirk handling
type DeviceConfig struct {
	Brand string `yaml:"brand"`
	Model string `yaml:"model"`
}

// MetricsConfig controls metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AuthenticatorConfig controls the simulated authenticator used when no
// platform authenticator is supplied
type AuthenticatorConfig struct {
	// Approve makes the simulated authenticator approve every challenge.
	// When false each challenge resolves as canceled by the user.
	Approve bool `yaml:"approve"`
}

// PromptConfig provides default biometric challenge text
type PromptConfig struct {
	Title       string `yaml:"title"`
	Message     string `yaml:"message"`
	CancelLabel string `yaml:"cancel_label"`
}

// DefaultConfig returns a configuration suitable for local development:
// in-memory storage, software security level, biometry enrolled.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Debug: false},
		SecureStore: SecureStoreConfig{
			SecurityLevel:    "software",
			BiometryEnrolled: true,
		},
		Metrics:       MetricsConfig{Enabled: true},
		Authenticator: AuthenticatorConfig{Approve: true},
		Prompt: PromptConfig{
			Title:       "Confirm signing",
			Message:     "Authenticate to sign with your key",
			CancelLabel: "Cancel",
		},
	}
}

// Load reads configuration from a YAML file and applies environment variable
// overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration
func applyEnvOverrides(cfg *Config) {
	if dataDir := os.Getenv("BIOKEY_DATA_DIR"); dataDir != "" {
		cfg.Storage.Path = dataDir
	}
	if debug := os.Getenv("BIOKEY_DEBUG"); debug == "1" || debug == "true" {
		cfg.Logging.Debug = true
	}
	if level := os.Getenv("BIOKEY_SECURITY_LEVEL"); level != "" {
		cfg.SecureStore.SecurityLevel = level
	}
	if brand := os.Getenv("BIOKEY_DEVICE_BRAND"); brand != "" {
		cfg.Device.Brand = brand
	}
	if model := os.Getenv("BIOKEY_DEVICE_MODEL"); model != "" {
		cfg.Device.Model = model
	}
}

// Validate checks the configuration for errors
func (cfg *Config) Validate() error {
	if cfg.SecureStore.SecurityLevel != "" {
		if types.ParseSecurityLevel(cfg.SecureStore.SecurityLevel) == types.SecurityLevelUnknown {
			return fmt.Errorf("unknown security level: %s", cfg.SecureStore.SecurityLevel)
		}
	}
	return nil
}

// SecurityLevel returns the parsed secure-store security level.
func (cfg *Config) SecurityLevel() types.SecurityLevel {
	level := types.ParseSecurityLevel(cfg.SecureStore.SecurityLevel)
	if level == types.SecurityLevelUnknown {
		return types.SecurityLevelSoftware
	}
	return level
}

// DeviceClass returns the configured device class.
func (cfg *Config) DeviceClass() types.DeviceClass {
	return types.DeviceClass{
		Brand: cfg.Device.Brand,
		Model: cfg.Device.Model,
	}
}
