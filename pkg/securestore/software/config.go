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

package software

import (
	"errors"

	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Config holds the configuration for the software secure store.
type Config struct {
	// KeyStorage is the backend used to persist key material and metadata.
	// Required.
	KeyStorage storage.Backend

	// SecurityLevel is the classification reported for generated keys.
	// Defaults to SecurityLevelSoftware.
	SecurityLevel types.SecurityLevel

	// LegacySchema emulates a platform that predates graded security levels
	// and only reports the InsideSecureHardware boolean.
	LegacySchema bool

	// InsideSecureHardware is the legacy classification reported when
	// LegacySchema is true.
	InsideSecureHardware bool

	// BiometryEnrolled is the initial emulated enrollment state. Restricted
	// key generation fails with ErrBiometryNotEnrolled while false.
	BiometryEnrolled bool
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}
	if c.KeyStorage == nil {
		return errors.New("key storage is required")
	}
	if c.SecurityLevel == types.SecurityLevelUnknown {
		c.SecurityLevel = types.SecurityLevelSoftware
	}
	return nil
}
