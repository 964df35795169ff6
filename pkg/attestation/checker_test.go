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

package attestation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/securestore/software"
	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

func newChecker(t *testing.T, cfg *software.Config) (*Checker, *aliasstore.Store, *software.SoftwareStore) {
	t.Helper()
	keys, err := software.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = keys.Close() })

	aliases := aliasstore.New(storage.NewMemory(), keys)
	return NewChecker(aliases, keys, nil), aliases, keys
}

func generateKey(t *testing.T, keys *software.SoftwareStore, aliases *aliasstore.Store, alias string) types.PublicKey {
	t.Helper()
	ecPub, err := keys.GenerateSigningKey(alias, types.PolicyOpen)
	require.NoError(t, err)

	publicKey, err := signing.EncodePublicKey(ecPub)
	require.NoError(t, err)
	require.NoError(t, aliases.Put(publicKey, alias))
	return publicKey
}

func TestIsHardwareBacked_SoftwareLevel(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:    storage.NewMemory(),
		SecurityLevel: types.SecurityLevelSoftware,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	assert.False(t, checker.IsHardwareBacked(publicKey))
}

func TestIsHardwareBacked_TrustedEnvironment(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:    storage.NewMemory(),
		SecurityLevel: types.SecurityLevelTrustedEnvironment,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	assert.True(t, checker.IsHardwareBacked(publicKey))
}

func TestIsHardwareBacked_StrongBox(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:    storage.NewMemory(),
		SecurityLevel: types.SecurityLevelStrongBox,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	assert.True(t, checker.IsHardwareBacked(publicKey))
}

func TestIsHardwareBacked_LegacySchema(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:           storage.NewMemory(),
		LegacySchema:         true,
		InsideSecureHardware: true,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	assert.True(t, checker.IsHardwareBacked(publicKey))
}

func TestIsHardwareBacked_LegacySchemaSoftware(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:           storage.NewMemory(),
		LegacySchema:         true,
		InsideSecureHardware: false,
		// The graded level is ignored on the legacy schema
		SecurityLevel: types.SecurityLevelStrongBox,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	assert.False(t, checker.IsHardwareBacked(publicKey))
}

func TestIsHardwareBacked_UnknownKey(t *testing.T) {
	checker, _, _ := newChecker(t, &software.Config{
		KeyStorage: storage.NewMemory(),
	})

	unknown := make(types.PublicKey, 65)
	unknown[0] = 4
	assert.False(t, checker.IsHardwareBacked(unknown))
}

func TestIsHardwareBacked_DeletedKey(t *testing.T) {
	checker, aliases, keys := newChecker(t, &software.Config{
		KeyStorage:    storage.NewMemory(),
		SecurityLevel: types.SecurityLevelStrongBox,
	})
	publicKey := generateKey(t, keys, aliases, "alias-1")

	require.NoError(t, keys.DeleteKey("alias-1"))
	assert.False(t, checker.IsHardwareBacked(publicKey))
}
