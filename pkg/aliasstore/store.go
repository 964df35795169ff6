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

// Package aliasstore persists the mapping from public keys to the opaque
// secure-storage aliases of their private keys. The alias is never exposed
// to callers; it only travels between this store and secure storage.
//
// A missing key is an expected steady-state condition here, not an
// exceptional one: read paths degrade to absence instead of returning
// errors.
package aliasstore

import (
	"fmt"

	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Store maps public keys to secure-storage aliases. At most one alias exists
// per public key; a public key with no record is indistinguishable from one
// that was never generated.
type Store struct {
	storage storage.Backend
	keys    securestore.Store
}

// New creates a Store over the given storage backend. The secure store is
// consulted by Exists to confirm the referenced slot still holds a private
// key.
func New(backend storage.Backend, keys securestore.Store) *Store {
	return &Store{
		storage: backend,
		keys:    keys,
	}
}

// Put persists the publicKey → alias mapping. Idempotent when called with
// the same pair. Overwriting an existing public key with a different alias
// is allowed but is a caller error in practice; every generate call produces
// a fresh public key.
func (s *Store) Put(publicKey types.PublicKey, alias string) error {
	if len(publicKey) == 0 {
		return fmt.Errorf("aliasstore: empty public key")
	}
	if alias == "" {
		return fmt.Errorf("aliasstore: empty alias")
	}
	return s.storage.Put(storage.AliasPath(publicKey.StorageID()), []byte(alias), nil)
}

// Get returns the alias mapped to publicKey. Absence is reported through the
// boolean, never as an error.
func (s *Store) Get(publicKey types.PublicKey) (string, bool) {
	if len(publicKey) == 0 {
		return "", false
	}
	value, err := s.storage.Get(storage.AliasPath(publicKey.StorageID()))
	if err != nil || len(value) == 0 {
		return "", false
	}
	return string(value), true
}

// Exists reports whether publicKey has a mapping AND the referenced
// secure-storage slot actually contains a private key entry. A stale mapping
// with a missing slot reports false. Any inspection failure reports false;
// absence is the safe default.
func (s *Store) Exists(publicKey types.PublicKey) bool {
	alias, ok := s.Get(publicKey)
	if !ok {
		return false
	}
	return s.keys.HasPrivateKey(alias)
}
