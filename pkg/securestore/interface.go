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

// Package securestore defines the contract for platform secure storage:
// storage for private key material that prevents extraction of the raw
// bytes. Keys are referenced by an opaque alias and used through capability
// handles (crypto.Signer) rather than key bytes.
package securestore

import (
	"crypto"
	"crypto/ecdsa"

	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Store is the secure-storage contract backing go-biokey. On Android this is
// AndroidKeyStore; the software implementation in the software subpackage
// emulates the same contract for platforms without a hardware keystore and
// for tests.
//
// All implementations must be thread-safe.
type Store interface {
	// GenerateSigningKey generates a P-256 key pair inside secure storage
	// under the given alias and access policy. The key supports sign and
	// verify purposes with the digest set {SHA-256, SHA-512, none}, so
	// callers may supply pre-hashed digests for raw signing.
	//
	// A restricted policy requires a fresh biometric-strong authentication
	// event for each private key use and is NOT invalidated by new
	// biometric enrollment; enrolling additional templates later must not
	// silently break existing keys.
	//
	// Returns ErrBiometryNotEnrolled if a restricted policy is requested
	// and no biometric credential is enrolled.
	GenerateSigningKey(alias string, policy types.AccessPolicy) (*ecdsa.PublicKey, error)

	// Signer returns a signing handle bound to the private key stored under
	// alias. The handle never exposes key material. Returns ErrKeyNotFound
	// if the alias has no private key entry.
	//
	// The returned signer fails with ErrKeyInvalidated if the key is
	// invalidated between handle creation and use.
	Signer(alias string) (crypto.Signer, error)

	// KeyInfo returns the secure-storage metadata for the key stored under
	// alias: its access policy and security-level classification.
	// Returns ErrKeyNotFound if the alias has no private key entry.
	KeyInfo(alias string) (*types.KeyInfo, error)

	// HasPrivateKey reports whether the slot referenced by alias actually
	// contains a private key entry. Inspection failures report false.
	HasPrivateKey(alias string) bool

	// InvalidateKey marks the key stored under alias as invalidated,
	// modeling platform revocation (e.g., biometric reset). Subsequent
	// signing attempts through existing handles fail with
	// ErrKeyInvalidated.
	InvalidateKey(alias string) error

	// DeleteKey removes the key stored under alias.
	// Returns ErrKeyNotFound if the alias has no private key entry.
	DeleteKey(alias string) error

	// Close releases any resources held by the store.
	Close() error
}
