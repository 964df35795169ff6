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

package biometric

import (
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/securestore/software"
	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

type orchestratorFixture struct {
	keys         *software.SoftwareStore
	aliases      *aliasstore.Store
	engine       *signing.Engine
	auth         *SimulatedAuthenticator
	orchestrator *Orchestrator
	publicKey    types.PublicKey
}

// recorder collects completion callbacks and counts invocations.
type recorder struct {
	mu         sync.Mutex
	calls      int
	signatures [][]byte
	errs       []error
}

func (r *recorder) complete(signature []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.signatures = append(r.signatures, signature)
	r.errs = append(r.errs, err)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recorder) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *recorder) lastSignature() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.signatures) == 0 {
		return nil
	}
	return r.signatures[len(r.signatures)-1]
}

func newOrchestratorFixture(t *testing.T, device types.DeviceClass) *orchestratorFixture {
	t.Helper()

	keys, err := software.New(&software.Config{
		KeyStorage:       storage.NewMemory(),
		BiometryEnrolled: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = keys.Close() })

	aliases := aliasstore.New(storage.NewMemory(), keys)
	engine := signing.NewEngine(aliases, keys, nil)

	ecPub, err := keys.GenerateSigningKey("alias-1", types.PolicyAuthenticationRequired)
	require.NoError(t, err)
	publicKey, err := signing.EncodePublicKey(ecPub)
	require.NoError(t, err)
	require.NoError(t, aliases.Put(publicKey, "alias-1"))

	auth := NewSimulatedAuthenticator()
	orchestrator, err := NewOrchestrator(Config{
		Engine:        engine,
		Authenticator: auth,
		Device:        device,
	})
	require.NoError(t, err)

	return &orchestratorFixture{
		keys:         keys,
		aliases:      aliases,
		engine:       engine,
		auth:         auth,
		orchestrator: orchestrator,
		publicKey:    publicKey,
	}
}

func validPrompt() PromptInfo {
	return PromptInfo{
		Title:       "Confirm signing",
		Message:     "Authenticate to sign",
		CancelLabel: "Cancel",
	}
}

func testDigest() []byte {
	digest := sha256.Sum256([]byte("payload"))
	return digest[:]
}

func TestBegin_SuccessResolvesWithSignature(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	rec := &recorder{}

	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	})
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	require.NoError(t, rec.lastErr())

	verifyCtx, err := f.engine.NewVerifyingContext(f.publicKey)
	require.NoError(t, err)
	assert.True(t, f.engine.Verify(verifyCtx, testDigest(), rec.lastSignature()))
}

func TestBegin_ResolvesExactlyOnce(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	// Contradictory sequence: success followed by a hard error
	f.auth.SetScript(
		Event{Kind: EventSucceed},
		Event{Kind: EventError, Code: ErrorCanceled, Message: "late cancel"},
	)

	rec := &recorder{}
	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	})
	require.NoError(t, err)

	// The success wins; the late error is discarded
	assert.Equal(t, 1, rec.count())
	assert.NoError(t, rec.lastErr())
}

func TestBegin_InvalidPromptFailsSynchronously(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	rec := &recorder{}

	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    PromptInfo{Title: "only a title"},
		Complete:  rec.complete,
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindInvalidPromptParameters))
	assert.Equal(t, 0, rec.count())
}

func TestBegin_MissingCompletionCallback(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})

	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindInvalidPromptParameters))
}

func TestBegin_UnknownKey(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	rec := &recorder{}

	unknown := make(types.PublicKey, 65)
	unknown[0] = 4
	err := f.orchestrator.Begin(Request{
		PublicKey: unknown,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindInvalidSignature))
	assert.Equal(t, 0, rec.count())
}

func TestBegin_KeyInvalidatedBeforeUse(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	require.NoError(t, f.keys.InvalidateKey("alias-1"))

	rec := &recorder{}
	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	})
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.True(t, types.IsKind(rec.lastErr(), types.KindInvalidSignature))
}

func TestCancel_ResolvesCanceled(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	// No scripted events: the challenge stays open until canceled
	f.auth.SetScript()

	rec := &recorder{}
	err := f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	})
	require.NoError(t, err)
	require.Equal(t, 0, rec.count())

	f.orchestrator.Cancel()

	require.Equal(t, 1, rec.count())
	assert.True(t, types.IsKind(rec.lastErr(), types.KindCanceled))
}

func TestCancel_NoSessionIsNoOp(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	f.orchestrator.Cancel()
	f.orchestrator.Cancel()
}

func TestCancel_Idempotent(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	f.auth.SetScript()

	rec := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	}))

	f.orchestrator.Cancel()
	f.orchestrator.Cancel()

	assert.Equal(t, 1, rec.count())
}

func TestBegin_SupersedesWithoutResolvingPrevious(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})
	f.auth.SetScript()

	first := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  first.complete,
	}))

	second := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  second.complete,
	}))

	// Cancel targets only the current (second) session
	f.orchestrator.Cancel()

	assert.Equal(t, 0, first.count(), "superseded session must not resolve")
	require.Equal(t, 1, second.count())
	assert.True(t, types.IsKind(second.lastErr(), types.KindCanceled))
}

func TestQuirkDevice_SoftFailureReclassified(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{
		Brand: "OnePlus",
		Model: "ONEPLUS A6013",
	})
	// The non-compliant prompt escalates the soft failure into a hard error
	f.auth.SetScript(
		Event{Kind: EventFail},
		Event{Kind: EventError, Code: ErrorCanceled, Message: "prompt dismissed itself"},
	)

	rec := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	}))

	require.Equal(t, 1, rec.count())
	assert.True(t, types.IsKind(rec.lastErr(), types.KindNonCompliantPrompt))

	converted := types.Convert(rec.lastErr())
	assert.Equal(t, ErrorCanceled, converted.NativeCode)
}

func TestCompliantDevice_SoftFailureKeepsChallengeOpen(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{
		Brand: "Google",
		Model: "Pixel 8",
	})
	f.auth.SetScript(Event{Kind: EventFail})

	rec := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	}))

	// Soft failure alone never resolves the session
	assert.Equal(t, 0, rec.count())

	// The user gives up
	f.orchestrator.Cancel()
	require.Equal(t, 1, rec.count())
	assert.True(t, types.IsKind(rec.lastErr(), types.KindCanceled))
}

func TestQuirkDevice_SuccessStillWorks(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{
		Brand: "OnePlus",
		Model: "ONEPLUS A6013",
	})

	rec := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	}))

	require.Equal(t, 1, rec.count())
	assert.NoError(t, rec.lastErr())
}

func TestLockout_AfterRepeatedChallenges(t *testing.T) {
	f := newOrchestratorFixture(t, types.DeviceClass{})

	// The simulated sensor allows a burst of 5 challenges
	for i := 0; i < 5; i++ {
		rec := &recorder{}
		require.NoError(t, f.orchestrator.Begin(Request{
			PublicKey: f.publicKey,
			Digest:    testDigest(),
			Prompt:    validPrompt(),
			Complete:  rec.complete,
		}))
		require.Equal(t, 1, rec.count())
		require.NoError(t, rec.lastErr())
	}

	rec := &recorder{}
	require.NoError(t, f.orchestrator.Begin(Request{
		PublicKey: f.publicKey,
		Digest:    testDigest(),
		Prompt:    validPrompt(),
		Complete:  rec.complete,
	}))

	require.Equal(t, 1, rec.count())
	assert.True(t, types.IsKind(rec.lastErr(), types.KindLockoutTemporarily))
}

func TestNewOrchestrator_RequiredFields(t *testing.T) {
	_, err := NewOrchestrator(Config{})
	assert.Error(t, err)

	_, err = NewOrchestrator(Config{Authenticator: NewSimulatedAuthenticator()})
	assert.Error(t, err)
}
