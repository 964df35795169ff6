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
	"errors"
	"sync"

	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// CompletionFunc delivers the outcome of a signing session to its caller.
// Exactly one of signature or err is set. err, when non-nil, is always a
// *types.Error.
type CompletionFunc func(signature []byte, err error)

// Request describes one authenticated signing operation.
type Request struct {
	// PublicKey identifies the signing key.
	PublicKey types.PublicKey

	// Digest is the pre-hashed payload to sign.
	Digest []byte

	// Prompt configures the challenge UI.
	Prompt PromptInfo

	// Complete receives the outcome. Called exactly once, possibly on a
	// platform callback goroutine.
	Complete CompletionFunc
}

// Config assembles an Orchestrator.
type Config struct {
	Engine        *signing.Engine
	Authenticator Authenticator
	Dispatcher    Dispatcher
	Codes         *CodeMapper
	Quirks        *QuirkTable
	Device        types.DeviceClass
	Logger        *logging.Logger
}

// Orchestrator runs biometric signing sessions. It tracks at most one
// "current" session for cooperative cancellation; starting a new session
// supersedes the previous one without resolving it, since its challenge may
// still be on screen and its caller still waiting.
type Orchestrator struct {
	engine     *signing.Engine
	auth       Authenticator
	dispatcher Dispatcher
	codes      *CodeMapper
	quirks     *QuirkTable
	device     types.DeviceClass
	logger     *logging.Logger

	mu      sync.Mutex
	current *Session
}

// NewOrchestrator creates an orchestrator from config. Engine and
// Authenticator are required; the remaining fields default to
// SynchronousDispatcher, DefaultCodeMapper, DefaultQuirkTable, and the
// default logger.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Engine == nil {
		return nil, errors.New("biometric: signing engine is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("biometric: authenticator is required")
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = SynchronousDispatcher{}
	}
	if cfg.Codes == nil {
		cfg.Codes = DefaultCodeMapper()
	}
	if cfg.Quirks == nil {
		cfg.Quirks = DefaultQuirkTable()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger()
	}
	return &Orchestrator{
		engine:     cfg.Engine,
		auth:       cfg.Authenticator,
		dispatcher: cfg.Dispatcher,
		codes:      cfg.Codes,
		quirks:     cfg.Quirks,
		device:     cfg.Device,
		logger:     cfg.Logger,
	}, nil
}

// Begin starts a signing session. Parameter validation failures are returned
// synchronously, before any challenge is shown; every later outcome arrives
// through req.Complete.
//
// Beginning a session while another is in flight supersedes the previous
// session as the cancellation target but does not resolve it.
func (o *Orchestrator) Begin(req Request) error {
	if req.Complete == nil {
		return types.NewError(types.KindInvalidPromptParameters,
			"completion callback is required")
	}
	if err := req.Prompt.Validate(); err != nil {
		return types.NewError(types.KindInvalidPromptParameters, err.Error())
	}

	crypto, err := o.engine.NewSigningContext(req.PublicKey)
	if err != nil {
		// The mapped key is gone or its handle is unusable. The original
		// failure is preserved in the message.
		return types.NewError(types.KindInvalidSignature, err.Error())
	}

	session := newSession(o, crypto, req.Digest, req.Complete)

	o.mu.Lock()
	o.current = session
	o.mu.Unlock()

	o.logger.Debug("biometric session started",
		"session", session.id,
		"alias", crypto.Alias())

	o.dispatcher.Dispatch(func() {
		challenge, err := o.auth.Authenticate(req.Prompt, crypto, session)
		if err != nil {
			session.resolve(nil, types.Convert(err))
			return
		}
		session.setChallenge(challenge)
	})
	return nil
}

// Cancel dismisses the current session's challenge, if any. Fire-and-forget:
// the session resolves through the canceled-error event the dismissal
// triggers. Canceling with no session in flight is a no-op, as is canceling
// twice.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	session := o.current
	o.mu.Unlock()

	if session == nil {
		return
	}
	session.cancelChallenge()
}

// clearCurrent drops the current-session slot if it still refers to s.
// A superseded session resolving late must not clear its replacement.
func (o *Orchestrator) clearCurrent(s *Session) {
	o.mu.Lock()
	if o.current == s {
		o.current = nil
	}
	o.mu.Unlock()
}
