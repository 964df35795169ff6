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

// Package biometric drives authenticated signing sessions: it shows a
// biometric challenge bound to a signing context and resolves the caller's
// pending request exactly once, tolerating duplicate, contradictory, and
// vendor-specific non-compliant callback sequences from the platform.
package biometric

import (
	"github.com/jeremyhahn/go-biokey/pkg/signing"
)

// Result carries the outcome of a successful authentication. The platform
// round-trips the signing context that was bound to the challenge; signing
// must use this context, not a freshly created one, because the
// authorization applies to the bound handle only.
type Result struct {
	// Crypto is the signing context bound to the completed challenge.
	Crypto *signing.SigningContext
}

// EventHandler receives challenge lifecycle events from the platform.
// Events may be delivered on arbitrary goroutines, may arrive more than
// once, and may contradict each other; receivers own de-duplication.
type EventHandler interface {
	// OnSucceeded is called when the user authenticated successfully.
	OnSucceeded(result *Result)

	// OnError is called when the challenge terminated with a hard error.
	// code is the platform-native error code.
	OnError(code int, message string)

	// OnFailed is called on a soft failure (e.g., one mismatched
	// fingerprint read). The challenge remains open and the user may retry;
	// compliant platforms never terminate the session from this event.
	OnFailed()
}

// Challenge is a handle to a live biometric challenge.
type Challenge interface {
	// Cancel requests the platform dismiss the challenge. Fire-and-forget:
	// the session resolves later through the error event the dismissal
	// triggers, not through this call.
	Cancel()
}

// Authenticator abstracts the platform biometric prompt. Implementations
// display a challenge bound to the given signing context and report
// lifecycle events to the handler.
type Authenticator interface {
	// Authenticate displays the challenge. The returned Challenge cancels
	// it. An error return means the challenge was never shown.
	Authenticate(prompt PromptInfo, crypto *signing.SigningContext, handler EventHandler) (Challenge, error)
}
