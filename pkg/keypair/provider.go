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

// Package keypair generates elliptic-curve key pairs inside secure storage
// under a chosen access policy and records the public key → alias mapping.
package keypair

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Provider generates key pairs inside secure storage and persists the alias
// mapping for each generated key.
type Provider struct {
	keys    securestore.Store
	aliases *aliasstore.Store
	logger  *logging.Logger
}

// NewProvider creates a key pair provider over the given secure storage and
// alias store.
func NewProvider(keys securestore.Store, aliases *aliasstore.Store, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Provider{
		keys:    keys,
		aliases: aliases,
		logger:  logger,
	}
}

// Generate creates a new P-256 signing key pair inside secure storage under
// a fresh alias and returns the encoded public key. When restricted is true
// the key requires a fresh biometric-strong authentication event per use;
// the policy is deliberately not invalidated by new biometric enrollment so
// existing keys keep working when the user enrolls additional templates.
//
// The alias mapping is written before the public key is returned; a caller
// holding the returned key can immediately resolve it.
//
// Fails with types.KindBiometryNotEnrolled when restricted is requested on a
// device with no enrolled biometric credential, and with
// types.KindKeyGenerationFailed for any other generation failure.
func (p *Provider) Generate(restricted bool) (types.PublicKey, error) {
	alias := uuid.NewString()

	policy := types.PolicyOpen
	if restricted {
		policy = types.PolicyAuthenticationRequired
	}

	ecPublicKey, err := p.keys.GenerateSigningKey(alias, policy)
	if err != nil {
		if errors.Is(err, securestore.ErrBiometryNotEnrolled) {
			return nil, types.NewError(types.KindBiometryNotEnrolled, err.Error())
		}
		return nil, types.NewError(types.KindKeyGenerationFailed, err.Error())
	}

	publicKey, err := signing.EncodePublicKey(ecPublicKey)
	if err != nil {
		// The slot is unreachable without an encodable public key; do not
		// leave it orphaned.
		_ = p.keys.DeleteKey(alias)
		return nil, types.NewError(types.KindKeyGenerationFailed, err.Error())
	}

	if err := p.aliases.Put(publicKey, alias); err != nil {
		_ = p.keys.DeleteKey(alias)
		return nil, types.NewError(types.KindKeyGenerationFailed,
			fmt.Sprintf("failed to persist alias mapping: %v", err))
	}

	p.logger.Debug("generated key pair", "public_key", publicKey.String(), "policy", policy.String())
	return publicKey, nil
}
