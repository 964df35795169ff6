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

// Package software provides a software emulation of the secure storage
// contract. Private keys are generated with the standard library, encoded as
// PKCS#8, and persisted through a storage.Backend. The emulation carries the
// same access-policy and security-level metadata a hardware keystore would,
// which makes it suitable for tests and for platforms without a hardware
// keystore.
package software

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// keyMetadata is the JSON sidecar persisted next to each private key.
type keyMetadata struct {
	Alias                string    `json:"alias"`
	Policy               uint8     `json:"policy"`
	SecurityLevel        string    `json:"security_level"`
	LegacySchema         bool      `json:"legacy_schema,omitempty"`
	InsideSecureHardware bool      `json:"inside_secure_hardware,omitempty"`
	Invalidated          bool      `json:"invalidated,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// SoftwareStore is a software implementation of securestore.Store.
// Thread-safe: uses a read-write mutex for concurrent access.
type SoftwareStore struct {
	storage  storage.Backend
	level    types.SecurityLevel
	legacy   bool
	insideHW bool
	enrolled bool
	closed   bool
	mu       sync.RWMutex
}

// New creates a new software secure store with the given configuration.
func New(config *Config) (*SoftwareStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &SoftwareStore{
		storage:  config.KeyStorage,
		level:    config.SecurityLevel,
		legacy:   config.LegacySchema,
		insideHW: config.InsideSecureHardware,
		enrolled: config.BiometryEnrolled,
	}, nil
}

// Verify interface compliance at compile time
var _ securestore.Store = (*SoftwareStore)(nil)

// GenerateSigningKey generates a P-256 key pair under the given alias and
// access policy. A restricted policy fails with ErrBiometryNotEnrolled when
// no biometric credential is enrolled, mirroring the platform behavior.
func (s *SoftwareStore) GenerateSigningKey(alias string, policy types.AccessPolicy) (*ecdsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, securestore.ErrClosed
	}
	if policy.Restricted() && !s.enrolled {
		return nil, securestore.ErrBiometryNotEnrolled
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", securestore.ErrGenerationFailed, err)
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", securestore.ErrGenerationFailed, err)
	}

	meta := &keyMetadata{
		Alias:                alias,
		Policy:               uint8(policy),
		SecurityLevel:        s.level.String(),
		LegacySchema:         s.legacy,
		InsideSecureHardware: s.insideHW,
		CreatedAt:            time.Now().UTC(),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", securestore.ErrGenerationFailed, err)
	}

	if err := s.storage.Put(storage.KeyPath(alias), keyBytes, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", securestore.ErrGenerationFailed, err)
	}
	if err := s.storage.Put(storage.KeyInfoPath(alias), metaBytes, nil); err != nil {
		// Roll back the orphaned key material
		_ = s.storage.Delete(storage.KeyPath(alias))
		return nil, fmt.Errorf("%w: %v", securestore.ErrGenerationFailed, err)
	}

	return &privateKey.PublicKey, nil
}

// Signer returns a signing handle bound to the private key stored under
// alias. The handle re-checks the invalidation flag at signing time, so a
// key revoked after handle creation fails with ErrKeyInvalidated.
func (s *SoftwareStore) Signer(alias string) (crypto.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, securestore.ErrClosed
	}

	privateKey, err := s.loadPrivateKey(alias)
	if err != nil {
		return nil, err
	}

	return &softwareSigner{store: s, alias: alias, privateKey: privateKey}, nil
}

// KeyInfo returns the secure-storage metadata for the key stored under alias.
func (s *SoftwareStore) KeyInfo(alias string) (*types.KeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, securestore.ErrClosed
	}

	meta, err := s.loadMetadata(alias)
	if err != nil {
		return nil, err
	}

	return &types.KeyInfo{
		Alias:                alias,
		Policy:               types.AccessPolicy(meta.Policy),
		SecurityLevel:        types.ParseSecurityLevel(meta.SecurityLevel),
		LegacySchema:         meta.LegacySchema,
		InsideSecureHardware: meta.InsideSecureHardware,
	}, nil
}

// HasPrivateKey reports whether the slot referenced by alias contains a
// private key entry. Any inspection failure reports false.
func (s *SoftwareStore) HasPrivateKey(alias string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || alias == "" {
		return false
	}

	exists, err := s.storage.Exists(storage.KeyPath(alias))
	if err != nil {
		return false
	}
	return exists
}

// InvalidateKey marks the key stored under alias as invalidated. Existing
// and future signing handles fail with ErrKeyInvalidated.
func (s *SoftwareStore) InvalidateKey(alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return securestore.ErrClosed
	}

	meta, err := s.loadMetadata(alias)
	if err != nil {
		return err
	}
	meta.Invalidated = true

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("securestore: failed to encode metadata: %w", err)
	}
	return s.storage.Put(storage.KeyInfoPath(alias), metaBytes, nil)
}

// DeleteKey removes the key stored under alias along with its metadata.
func (s *SoftwareStore) DeleteKey(alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return securestore.ErrClosed
	}

	if err := s.storage.Delete(storage.KeyPath(alias)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return securestore.ErrKeyNotFound
		}
		return err
	}
	_ = s.storage.Delete(storage.KeyInfoPath(alias))
	return nil
}

// SetEnrolled sets the emulated biometric enrollment state. Flipping
// enrollment does not invalidate existing keys, matching the generation
// policy.
func (s *SoftwareStore) SetEnrolled(enrolled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled = enrolled
}

// Close releases any resources held by the store.
func (s *SoftwareStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return nil
}

// loadPrivateKey reads and decodes the PKCS#8 key stored under alias.
// Callers must hold at least a read lock.
func (s *SoftwareStore) loadPrivateKey(alias string) (*ecdsa.PrivateKey, error) {
	if alias == "" {
		return nil, securestore.ErrKeyNotFound
	}

	keyBytes, err := s.storage.Get(storage.KeyPath(alias))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, securestore.ErrKeyNotFound
		}
		return nil, fmt.Errorf("securestore: failed to read key %q: %w", alias, err)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("securestore: failed to decode key %q: %w", alias, err)
	}
	privateKey, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("securestore: key %q is not an ECDSA key", alias)
	}
	return privateKey, nil
}

// loadMetadata reads the JSON sidecar stored under alias.
// Callers must hold at least a read lock.
func (s *SoftwareStore) loadMetadata(alias string) (*keyMetadata, error) {
	if alias == "" {
		return nil, securestore.ErrKeyNotFound
	}

	metaBytes, err := s.storage.Get(storage.KeyInfoPath(alias))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, securestore.ErrKeyNotFound
		}
		return nil, fmt.Errorf("securestore: failed to read metadata for %q: %w", alias, err)
	}

	var meta keyMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("securestore: failed to decode metadata for %q: %w", alias, err)
	}
	return &meta, nil
}

// isInvalidated reports the invalidation flag for alias. Unreadable metadata
// is treated as invalidated: the handle must not keep signing once the
// platform can no longer vouch for the key.
func (s *SoftwareStore) isInvalidated(alias string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return true
	}
	meta, err := s.loadMetadata(alias)
	if err != nil {
		return true
	}
	return meta.Invalidated
}

// softwareSigner is a crypto.Signer bound to one stored key. The signer
// checks the invalidation flag at every use, mirroring platform handles
// whose authorization is evaluated per operation.
type softwareSigner struct {
	store      *SoftwareStore
	alias      string
	privateKey *ecdsa.PrivateKey
}

// Public returns the public key corresponding to the bound private key.
func (ss *softwareSigner) Public() crypto.PublicKey {
	return &ss.privateKey.PublicKey
}

// Sign signs the pre-hashed digest with the bound private key, producing an
// ASN.1 DER encoded ECDSA signature. The digest is signed as-is; the caller
// is responsible for hashing.
func (ss *softwareSigner) Sign(reader io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if ss.store.isInvalidated(ss.alias) {
		return nil, securestore.ErrKeyInvalidated
	}
	if reader == nil {
		reader = rand.Reader
	}
	return ecdsa.SignASN1(reader, ss.privateKey, digest)
}
