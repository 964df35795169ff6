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
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

func newTestStore(t *testing.T, enrolled bool) *SoftwareStore {
	t.Helper()
	store, err := New(&Config{
		KeyStorage:       storage.NewMemory(),
		BiometryEnrolled: enrolled,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_RequiresKeyStorage(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestGenerateSigningKey_Open(t *testing.T) {
	store := newTestStore(t, false)

	publicKey, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)
	require.NotNil(t, publicKey)
	assert.Equal(t, "P-256", publicKey.Curve.Params().Name)
	assert.True(t, store.HasPrivateKey("alias-1"))
}

func TestGenerateSigningKey_RestrictedRequiresEnrollment(t *testing.T) {
	store := newTestStore(t, false)

	_, err := store.GenerateSigningKey("alias-1", types.PolicyAuthenticationRequired)
	assert.ErrorIs(t, err, securestore.ErrBiometryNotEnrolled)
	assert.False(t, store.HasPrivateKey("alias-1"))
}

func TestGenerateSigningKey_RestrictedWithEnrollment(t *testing.T) {
	store := newTestStore(t, true)

	publicKey, err := store.GenerateSigningKey("alias-1", types.PolicyAuthenticationRequired)
	require.NoError(t, err)
	require.NotNil(t, publicKey)

	info, err := store.KeyInfo("alias-1")
	require.NoError(t, err)
	assert.True(t, info.Policy.Restricted())
}

func TestGenerateSigningKey_EnrollmentChangeKeepsExistingKeys(t *testing.T) {
	store := newTestStore(t, true)

	_, err := store.GenerateSigningKey("alias-1", types.PolicyAuthenticationRequired)
	require.NoError(t, err)

	// Enrolling or removing templates later must not break existing keys
	store.SetEnrolled(false)

	signer, err := store.Signer("alias-1")
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("payload"))
	signature, err := signer.Sign(rand.Reader, digest[:], crypto.Hash(0))
	require.NoError(t, err)
	assert.NotEmpty(t, signature)
}

func TestSigner_SignAndVerify(t *testing.T) {
	store := newTestStore(t, true)

	publicKey, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)

	signer, err := store.Signer("alias-1")
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("payload"))
	signature, err := signer.Sign(rand.Reader, digest[:], crypto.Hash(0))
	require.NoError(t, err)

	assert.True(t, ecdsa.VerifyASN1(publicKey, digest[:], signature))

	signerPub, ok := signer.Public().(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.True(t, publicKey.Equal(signerPub))
}

func TestSigner_NotFound(t *testing.T) {
	store := newTestStore(t, true)

	_, err := store.Signer("missing")
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestSigner_InvalidatedAfterHandleCreation(t *testing.T) {
	store := newTestStore(t, true)

	_, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)

	signer, err := store.Signer("alias-1")
	require.NoError(t, err)

	require.NoError(t, store.InvalidateKey("alias-1"))

	digest := sha256.Sum256([]byte("payload"))
	_, err = signer.Sign(rand.Reader, digest[:], crypto.Hash(0))
	assert.ErrorIs(t, err, securestore.ErrKeyInvalidated)
}

func TestKeyInfo_SecurityLevels(t *testing.T) {
	backend := storage.NewMemory()
	store, err := New(&Config{
		KeyStorage:       backend,
		SecurityLevel:    types.SecurityLevelStrongBox,
		BiometryEnrolled: true,
	})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)

	info, err := store.KeyInfo("alias-1")
	require.NoError(t, err)
	assert.Equal(t, types.SecurityLevelStrongBox, info.SecurityLevel)
	assert.False(t, info.LegacySchema)
	assert.True(t, info.HardwareBacked())
}

func TestKeyInfo_LegacySchema(t *testing.T) {
	store, err := New(&Config{
		KeyStorage:           storage.NewMemory(),
		LegacySchema:         true,
		InsideSecureHardware: true,
		BiometryEnrolled:     true,
	})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)

	info, err := store.KeyInfo("alias-1")
	require.NoError(t, err)
	assert.True(t, info.LegacySchema)
	assert.True(t, info.InsideSecureHardware)
	assert.True(t, info.HardwareBacked())
}

func TestKeyInfo_NotFound(t *testing.T) {
	store := newTestStore(t, true)

	_, err := store.KeyInfo("missing")
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestHasPrivateKey(t *testing.T) {
	store := newTestStore(t, true)

	assert.False(t, store.HasPrivateKey(""))
	assert.False(t, store.HasPrivateKey("missing"))

	_, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)
	assert.True(t, store.HasPrivateKey("alias-1"))
}

func TestDeleteKey(t *testing.T) {
	store := newTestStore(t, true)

	_, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	require.NoError(t, err)

	require.NoError(t, store.DeleteKey("alias-1"))
	assert.False(t, store.HasPrivateKey("alias-1"))

	_, err = store.KeyInfo("alias-1")
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)

	err = store.DeleteKey("alias-1")
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestClose(t *testing.T) {
	store := newTestStore(t, true)
	require.NoError(t, store.Close())

	_, err := store.GenerateSigningKey("alias-1", types.PolicyOpen)
	assert.ErrorIs(t, err, securestore.ErrClosed)

	_, err = store.Signer("alias-1")
	assert.ErrorIs(t, err, securestore.ErrClosed)

	assert.False(t, store.HasPrivateKey("alias-1"))

	// Double close is a no-op
	assert.NoError(t, store.Close())
}
