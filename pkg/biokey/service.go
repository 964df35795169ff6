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

// Package biokey is the top-level facade over key generation, authenticated
// signing, verification, and attestation. It is the single operation boundary:
// every error leaving this package is a *types.Error carrying a stable
// ErrorKind.
package biokey

import (
	"errors"
	"time"

	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/attestation"
	"github.com/jeremyhahn/go-biokey/pkg/biometric"
	"github.com/jeremyhahn/go-biokey/pkg/keypair"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/metrics"
	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// SignRequest describes one signing operation. Digest must be the pre-hashed
// payload; the service signs the digest bytes as given.
type SignRequest struct {
	// PublicKey identifies the signing key.
	PublicKey types.PublicKey

	// Digest is the pre-hashed payload to sign.
	Digest []byte

	// Prompt configures the biometric challenge. Ignored for keys that do
	// not require authentication.
	Prompt biometric.PromptInfo

	// Complete receives the outcome. Called exactly once; for
	// authentication-gated keys possibly on a platform callback goroutine.
	Complete biometric.CompletionFunc
}

// Service exposes the public key management operations: generate, sign,
// verify, existence and hardware-backing checks, and cancellation of an
// in-flight biometric challenge.
type Service struct {
	keys         securestore.Store
	storage      storage.Backend
	aliases      *aliasstore.Store
	provider     *keypair.Provider
	engine       *signing.Engine
	checker      *attestation.Checker
	orchestrator *biometric.Orchestrator
	logger       *logging.Logger
}

// New wires a Service from config.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aliases := aliasstore.New(cfg.Storage, cfg.Keys)
	engine := signing.NewEngine(aliases, cfg.Keys, cfg.Logger)

	orchestrator, err := biometric.NewOrchestrator(biometric.Config{
		Engine:        engine,
		Authenticator: cfg.Authenticator,
		Dispatcher:    cfg.Dispatcher,
		Codes:         cfg.Codes,
		Quirks:        cfg.Quirks,
		Device:        cfg.Device,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		keys:         cfg.Keys,
		storage:      cfg.Storage,
		aliases:      aliases,
		provider:     keypair.NewProvider(cfg.Keys, aliases, cfg.Logger),
		engine:       engine,
		checker:      attestation.NewChecker(aliases, cfg.Keys, cfg.Logger),
		orchestrator: orchestrator,
		logger:       cfg.Logger,
	}, nil
}

// Generate creates a new P-256 signing key pair in secure storage and returns
// its encoded public key. When restricted is true each signature requires a
// fresh biometric authentication.
func (s *Service) Generate(restricted bool) (types.PublicKey, error) {
	start := time.Now()

	publicKey, err := s.provider.Generate(restricted)
	if err != nil {
		converted := types.Convert(err)
		metrics.RecordOperation(metrics.OpGenerate, metrics.StatusError, time.Since(start).Seconds())
		metrics.RecordError(metrics.OpGenerate, string(converted.Kind))
		return nil, converted
	}

	metrics.RecordOperation(metrics.OpGenerate, metrics.StatusSuccess, time.Since(start).Seconds())
	return publicKey, nil
}

// HasKey reports whether publicKey maps to a live private key. Stale
// mappings and lookup failures report false.
func (s *Service) HasKey(publicKey types.PublicKey) bool {
	exists := s.aliases.Exists(publicKey)
	status := metrics.StatusSuccess
	if !exists {
		status = metrics.StatusError
	}
	metrics.RecordOperation(metrics.OpHasKey, status, 0)
	return exists
}

// Sign signs req.Digest with the key identified by req.PublicKey. For an
// authentication-gated key a biometric challenge is shown and the outcome is
// delivered asynchronously through req.Complete; for an open key the digest
// is signed immediately and req.Complete is invoked before Sign returns.
//
// A synchronous non-nil return means the operation never started and
// req.Complete will not be called.
func (s *Service) Sign(req SignRequest) error {
	if req.Complete == nil {
		return types.NewError(types.KindInvalidPromptParameters,
			"completion callback is required")
	}

	start := time.Now()
	complete := func(signature []byte, err error) {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
			metrics.RecordError(metrics.OpSign, string(types.Convert(err).Kind))
		}
		metrics.RecordOperation(metrics.OpSign, status, time.Since(start).Seconds())
		req.Complete(signature, err)
	}

	if !s.requiresAuthentication(req.PublicKey) {
		ctx, err := s.engine.NewSigningContext(req.PublicKey)
		if err != nil {
			return types.NewError(types.KindInvalidSignature, err.Error())
		}
		signature, err := s.engine.Sign(ctx, req.Digest)
		if err != nil {
			complete(nil, types.NewError(types.KindInvalidSignature, err.Error()))
		} else {
			complete(signature, nil)
		}
		return nil
	}

	err := s.orchestrator.Begin(biometric.Request{
		PublicKey: req.PublicKey,
		Digest:    req.Digest,
		Prompt:    req.Prompt,
		Complete: func(signature []byte, err error) {
			metrics.RecordChallenge(challengeOutcome(err))
			complete(signature, err)
		},
	})
	if err != nil {
		return types.Convert(err)
	}
	return nil
}

// SignSync is Sign with the outcome delivered on the calling goroutine. It
// blocks until the signing session resolves, which for an
// authentication-gated key includes the user interacting with the challenge.
func (s *Service) SignSync(publicKey types.PublicKey, digest []byte, prompt biometric.PromptInfo) ([]byte, error) {
	type outcome struct {
		signature []byte
		err       error
	}
	done := make(chan outcome, 1)

	err := s.Sign(SignRequest{
		PublicKey: publicKey,
		Digest:    digest,
		Prompt:    prompt,
		Complete: func(signature []byte, err error) {
			done <- outcome{signature: signature, err: err}
		},
	})
	if err != nil {
		return nil, err
	}

	result := <-done
	return result.signature, result.err
}

// Verify reports whether signature is a valid signature of digest under
// publicKey. A well-formed but mismatched signature reports (false, nil);
// an undecodable public key reports an error.
func (s *Service) Verify(publicKey types.PublicKey, digest, signature []byte) (bool, error) {
	start := time.Now()

	ctx, err := s.engine.NewVerifyingContext(publicKey)
	if err != nil {
		converted := types.Convert(err)
		metrics.RecordOperation(metrics.OpVerify, metrics.StatusError, time.Since(start).Seconds())
		metrics.RecordError(metrics.OpVerify, string(converted.Kind))
		return false, converted
	}

	valid := s.engine.Verify(ctx, digest, signature)
	metrics.RecordOperation(metrics.OpVerify, metrics.StatusSuccess, time.Since(start).Seconds())
	return valid, nil
}

// CancelSigning dismisses the current biometric challenge, if any. The
// pending Sign resolves with KindCanceled through its completion callback.
// Safe to call with no challenge in flight.
func (s *Service) CancelSigning() {
	metrics.RecordOperation(metrics.OpCancel, metrics.StatusSuccess, 0)
	s.orchestrator.Cancel()
}

// IsKeyHardwareBacked reports whether the private key of publicKey lives in
// hardware-isolated storage. Unknown keys and inspection failures report
// false.
func (s *Service) IsKeyHardwareBacked(publicKey types.PublicKey) bool {
	backed := s.checker.IsHardwareBacked(publicKey)
	metrics.RecordOperation(metrics.OpHardwareBacked, metrics.StatusSuccess, 0)
	return backed
}

// Close releases the secure store and storage backend.
func (s *Service) Close() error {
	return errors.Join(s.keys.Close(), s.storage.Close())
}

// requiresAuthentication reports whether publicKey's policy gates each use on
// a biometric challenge. Unknown policies default to requiring
// authentication; failing open would bypass the gate.
func (s *Service) requiresAuthentication(publicKey types.PublicKey) bool {
	alias, ok := s.aliases.Get(publicKey)
	if !ok {
		return true
	}
	info, err := s.keys.KeyInfo(alias)
	if err != nil {
		return true
	}
	return info.Policy.Restricted()
}

func challengeOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeAuthenticated
	}
	switch types.Convert(err).Kind {
	case types.KindCanceled:
		return metrics.OutcomeCanceled
	case types.KindLockoutTemporarily, types.KindLockoutPermanent:
		return metrics.OutcomeLockout
	default:
		return metrics.OutcomeError
	}
}
