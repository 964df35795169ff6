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

// Package types contains shared type definitions used across go-biokey,
// including public key encoding, access policies, secure storage security
// levels, and the cross-platform error taxonomy. This package has no
// dependencies on other go-biokey packages to prevent import cycles.
package types

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// =============================================================================
// Public Keys
// =============================================================================

// PublicKey is the uniquely-encoded public portion of an EC key pair and the
// only identifier callers ever hold for a key. The encoding is the ANSI X9.62
// uncompressed point format (0x04 || X || Y) for the P-256 curve.
//
// The private key never leaves secure storage; callers reference it
// exclusively through this value.
type PublicKey []byte

// StorageID returns the canonical string form of the public key used as the
// lookup key in the alias store.
func (pk PublicKey) StorageID() string {
	return base64.RawURLEncoding.EncodeToString(pk)
}

// String returns an abbreviated base64 form suitable for logging.
func (pk PublicKey) String() string {
	s := base64.RawURLEncoding.EncodeToString(pk)
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}

// Equal reports whether two public keys have identical encodings.
func (pk PublicKey) Equal(other PublicKey) bool {
	return string(pk) == string(other)
}

// =============================================================================
// Access Policy
// =============================================================================

// AccessPolicy controls whether use of a private key requires a fresh user
// authentication event. The policy is fixed at generation time and cannot be
// changed afterwards.
type AccessPolicy uint8

const (
	// PolicyOpen allows the key to be used without user authentication.
	PolicyOpen AccessPolicy = iota

	// PolicyAuthenticationRequired requires a fresh biometric-strong
	// authentication event for every private key use.
	PolicyAuthenticationRequired
)

// Restricted reports whether the policy requires user authentication.
func (p AccessPolicy) Restricted() bool {
	return p == PolicyAuthenticationRequired
}

// String returns the string representation of the access policy.
func (p AccessPolicy) String() string {
	switch p {
	case PolicyOpen:
		return "open"
	case PolicyAuthenticationRequired:
		return "authentication-required"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// =============================================================================
// Security Level
// =============================================================================

// SecurityLevel classifies where a key's cryptographic operations execute.
// Newer platforms report a graded level; older platforms only expose a
// boolean "inside secure hardware" (see KeyInfo.LegacySchema).
type SecurityLevel uint8

const (
	// SecurityLevelUnknown indicates the level could not be determined.
	SecurityLevelUnknown SecurityLevel = iota

	// SecurityLevelSoftware indicates key operations run in software.
	SecurityLevelSoftware

	// SecurityLevelTrustedEnvironment indicates key operations run inside a
	// trusted execution environment isolated from the main OS.
	SecurityLevelTrustedEnvironment

	// SecurityLevelStrongBox indicates key operations run inside a dedicated
	// secure element.
	SecurityLevelStrongBox
)

// IsHardwareBacked reports whether the level indicates the key material is
// protected by hardware.
func (sl SecurityLevel) IsHardwareBacked() bool {
	return sl == SecurityLevelTrustedEnvironment || sl == SecurityLevelStrongBox
}

// String returns the string representation of the security level.
func (sl SecurityLevel) String() string {
	switch sl {
	case SecurityLevelSoftware:
		return "software"
	case SecurityLevelTrustedEnvironment:
		return "trusted-environment"
	case SecurityLevelStrongBox:
		return "strongbox"
	default:
		return "unknown"
	}
}

// ParseSecurityLevel converts a string to a SecurityLevel. Returns
// SecurityLevelUnknown for unrecognized values.
func ParseSecurityLevel(s string) SecurityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "software":
		return SecurityLevelSoftware
	case "trusted-environment", "tee":
		return SecurityLevelTrustedEnvironment
	case "strongbox", "secure-element":
		return SecurityLevelStrongBox
	default:
		return SecurityLevelUnknown
	}
}

// =============================================================================
// Key Info
// =============================================================================

// KeyInfo describes the secure-storage metadata for a stored private key.
type KeyInfo struct {
	// Alias is the secure-storage slot identifier the key lives under.
	Alias string

	// Policy is the access policy fixed at generation time.
	Policy AccessPolicy

	// SecurityLevel is the graded classification of where key operations
	// execute. Only meaningful when LegacySchema is false.
	SecurityLevel SecurityLevel

	// LegacySchema indicates the platform predates graded security levels
	// and only exposes the InsideSecureHardware boolean.
	LegacySchema bool

	// InsideSecureHardware is the legacy classification boolean. Only
	// meaningful when LegacySchema is true.
	InsideSecureHardware bool
}

// HardwareBacked reports whether the metadata indicates the key is protected
// by hardware, honoring both classification schemes.
func (ki *KeyInfo) HardwareBacked() bool {
	if ki.LegacySchema {
		return ki.InsideSecureHardware
	}
	return ki.SecurityLevel.IsHardwareBacked()
}

// =============================================================================
// Device Class
// =============================================================================

// DeviceClass identifies a vendor + model combination. It keys the quirk
// table used to work around devices with non-compliant biometric prompts.
type DeviceClass struct {
	// Brand is the device vendor identifier (case-insensitive).
	Brand string

	// Model is the vendor's model identifier.
	Model string
}

// String returns the string representation of the device class.
func (dc DeviceClass) String() string {
	return dc.Brand + "/" + dc.Model
}
