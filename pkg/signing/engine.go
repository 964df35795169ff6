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

// Package signing creates signing and verifying contexts bound to stored
// keys and performs raw ECDSA over caller-supplied digests. Payload hashing
// is an external pre-hash step: the engine never hashes, it signs and
// verifies the digest bytes as given ("no-hash" signing).
package signing

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// SigningContext is an ephemeral handle bound to one stored private key.
// It is produced per signing operation (or per authentication session),
// used once, then discarded. During a biometric challenge the context is
// bound to the challenge and round-tripped back on success.
type SigningContext struct {
	alias  string
	signer crypto.Signer
}

// Alias returns the secure-storage alias the context is bound to.
func (sc *SigningContext) Alias() string {
	return sc.alias
}

// VerifyingContext is an ephemeral handle bound to one decoded public key.
type VerifyingContext struct {
	publicKey *ecdsa.PublicKey
}

// Engine creates signing and verifying contexts and performs raw (pre-hashed)
// ECDSA sign and verify operations. Signatures are ASN.1 DER encoded.
type Engine struct {
	aliases *aliasstore.Store
	keys    securestore.Store
	logger  *logging.Logger
}

// NewEngine creates a signature engine over the given alias store and secure
// storage.
func NewEngine(aliases *aliasstore.Store, keys securestore.Store, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Engine{
		aliases: aliases,
		keys:    keys,
		logger:  logger,
	}
}

// NewSigningContext creates a signing context bound to the private key of
// publicKey. Returns ErrKeyUnavailable if the key has no alias mapping or
// the referenced slot holds no private key.
func (e *Engine) NewSigningContext(publicKey types.PublicKey) (*SigningContext, error) {
	alias, ok := e.aliases.Get(publicKey)
	if !ok {
		return nil, fmt.Errorf("%w: no alias for %s", ErrKeyUnavailable, publicKey)
	}

	signer, err := e.keys.Signer(alias)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	return &SigningContext{alias: alias, signer: signer}, nil
}

// Sign performs raw ECDSA over the caller-hashed digest using the context's
// bound key. Returns ErrSignatureFailed if the key was invalidated between
// context creation and use.
func (e *Engine) Sign(ctx *SigningContext, digest []byte) ([]byte, error) {
	if ctx == nil || ctx.signer == nil {
		return nil, ErrKeyUnavailable
	}

	signature, err := ctx.signer.Sign(rand.Reader, digest, crypto.Hash(0))
	if err != nil {
		if errors.Is(err, securestore.ErrKeyInvalidated) {
			e.logger.Warn("signing key invalidated", "alias", ctx.alias)
		}
		return nil, fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}

	e.logger.Debug("signed digest", "alias", ctx.alias, "digest_len", len(digest))
	return signature, nil
}

// NewVerifyingContext creates a verifying context for publicKey. Returns
// ErrInvalidPublicKey if the encoding cannot be decoded into a valid curve
// point.
func (e *Engine) NewVerifyingContext(publicKey types.PublicKey) (*VerifyingContext, error) {
	decoded, err := DecodePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &VerifyingContext{publicKey: decoded}, nil
}

// Verify reports whether signature is a valid ASN.1 DER ECDSA signature of
// digest under the context's public key. A mismatched or malformed signature
// reports false, never an error.
func (e *Engine) Verify(ctx *VerifyingContext, digest, signature []byte) bool {
	if ctx == nil || ctx.publicKey == nil {
		return false
	}
	return ecdsa.VerifyASN1(ctx.publicKey, digest, signature)
}
