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

package config

import (
	"fmt"
	"path/filepath"

	"github.com/jeremyhahn/go-biokey/pkg/biokey"
	"github.com/jeremyhahn/go-biokey/pkg/biometric"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/metrics"
	"github.com/jeremyhahn/go-biokey/pkg/securestore/software"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/storage/file"
)

// CreateService builds a biokey Service from the configuration: file or
// in-memory storage, the software secure store, and the simulated
// authenticator. The authenticator parameter overrides the simulated one
// when non-nil.
func (cfg *Config) CreateService(authenticator biometric.Authenticator) (*biokey.Service, error) {
	logger := logging.NewLogger(cfg.Logging.Debug)

	var aliasBackend storage.Backend
	var keyBackend storage.Backend
	var err error

	if cfg.Storage.Path == "" {
		aliasBackend = storage.NewMemory()
		keyBackend = storage.NewMemory()
	} else {
		aliasBackend, err = file.New(filepath.Join(cfg.Storage.Path, "aliases"))
		if err != nil {
			return nil, fmt.Errorf("failed to open alias storage: %w", err)
		}
		keyBackend, err = file.New(filepath.Join(cfg.Storage.Path, "keys"))
		if err != nil {
			return nil, fmt.Errorf("failed to open key storage: %w", err)
		}
	}

	keys, err := software.New(&software.Config{
		KeyStorage:           keyBackend,
		SecurityLevel:        cfg.SecurityLevel(),
		LegacySchema:         cfg.SecureStore.LegacySchema,
		InsideSecureHardware: cfg.SecureStore.InsideSecureHardware,
		BiometryEnrolled:     cfg.SecureStore.BiometryEnrolled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open secure store: %w", err)
	}

	if authenticator == nil {
		sim := biometric.NewSimulatedAuthenticator()
		if !cfg.Authenticator.Approve {
			sim.SetScript(biometric.Event{
				Kind:    biometric.EventError,
				Code:    biometric.ErrorCanceled,
				Message: "denied by configuration",
			})
		}
		authenticator = sim
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	return biokey.New(biokey.Config{
		Keys:          keys,
		Storage:       aliasBackend,
		Authenticator: authenticator,
		Device:        cfg.DeviceClass(),
		Logger:        logger,
	})
}
