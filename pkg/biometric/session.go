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
	"sync"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-biokey/pkg/signing"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Session is the ephemeral state of one in-flight biometric challenge bound
// to one signing operation. A session is strictly single-use: the resolved
// latch flips exactly once, and every platform event addressed to a resolved
// session is discarded.
//
// All resolution paths run under the session mutex, so the latch is safe to
// race from the goroutine delivering platform callbacks, the UI dispatcher,
// and the caller's goroutine. Resolution is keyed by session identity:
// events close over the session object, never over orchestrator-global
// state, so a superseded session can never resolve its replacement's caller.
type Session struct {
	id       string
	crypto   *signing.SigningContext
	digest   []byte
	complete CompletionFunc
	orch     *Orchestrator

	mu           sync.Mutex
	resolved     bool
	quirkFailure bool
	challenge    Challenge
}

// Verify interface compliance at compile time
var _ EventHandler = (*Session)(nil)

func newSession(orch *Orchestrator, crypto *signing.SigningContext, digest []byte, complete CompletionFunc) *Session {
	return &Session{
		id:       uuid.NewString(),
		crypto:   crypto,
		digest:   digest,
		complete: complete,
		orch:     orch,
	}
}

// ID returns the session identity.
func (s *Session) ID() string {
	return s.id
}

// setChallenge records the live challenge handle. If the session already
// resolved while the challenge was being created, the challenge is dismissed
// immediately.
func (s *Session) setChallenge(ch Challenge) {
	s.mu.Lock()
	resolved := s.resolved
	if !resolved {
		s.challenge = ch
	}
	s.mu.Unlock()

	if resolved && ch != nil {
		ch.Cancel()
	}
}

// cancelChallenge dismisses the live challenge if one exists. It never
// resolves the session; resolution arrives through the error event the
// dismissal triggers.
func (s *Session) cancelChallenge() {
	s.mu.Lock()
	ch := s.challenge
	s.mu.Unlock()

	if ch != nil {
		ch.Cancel()
	}
}

// resolve completes the caller's pending request. The first caller wins;
// every subsequent call is a silent no-op. Returns whether this call won.
func (s *Session) resolve(signature []byte, err error) bool {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return false
	}
	s.resolved = true
	s.quirkFailure = false
	s.mu.Unlock()

	s.orch.clearCurrent(s)
	s.complete(signature, err)
	return true
}

// OnSucceeded handles a successful authentication: it signs the pending
// digest with the signing context the platform round-tripped back on the
// completed challenge.
//
// The challenge is dismissed explicitly afterwards; some vendors fail to do
// so on their own, and a second callback for the same challenge must find
// the latch already flipped.
func (s *Session) OnSucceeded(result *Result) {
	crypto := s.crypto
	if result != nil && result.Crypto != nil {
		crypto = result.Crypto
	}

	signature, err := s.orch.engine.Sign(crypto, s.digest)
	if err != nil {
		// Authentication was satisfied but the bound key was invalidated in
		// the interim (e.g., the biometric set changed).
		s.resolve(nil, types.NewError(types.KindInvalidSignature, err.Error()))
	} else {
		s.resolve(signature, nil)
	}

	s.cancelChallenge()
}

// OnError handles a hard challenge error. When the vendor-quirk flag is set,
// the platform escalated a soft failure into this error; it resolves as
// NonCompliantPrompt instead of the platform's misleading code.
func (s *Session) OnError(code int, message string) {
	s.mu.Lock()
	quirk := s.quirkFailure
	s.mu.Unlock()

	if quirk {
		s.resolve(nil, types.NewPlatformError(types.KindNonCompliantPrompt, code, message))
	} else {
		s.resolve(nil, s.orch.codes.Map(code, message))
	}

	// Some vendors never dismiss the prompt after an error event.
	s.cancelChallenge()
}

// OnFailed handles a soft failure. On compliant devices the prompt stays
// open and nothing happens here. On a quirk-affected device class the
// platform is about to escalate this into a hard error, so the session
// records the quirk and proactively dismisses the stuck challenge.
func (s *Session) OnFailed() {
	if !s.orch.quirks.Affected(s.orch.device) {
		return
	}

	s.mu.Lock()
	s.quirkFailure = true
	s.mu.Unlock()

	s.cancelChallenge()
}
