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
	"time"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-biokey/pkg/signing"
)

// Event is one scripted callback for the simulated authenticator.
type Event struct {
	// Kind selects which EventHandler method fires.
	Kind EventKind

	// Code and Message apply to EventError only.
	Code    int
	Message string
}

// EventKind enumerates the scripted callback types.
type EventKind int

const (
	// EventSucceed delivers OnSucceeded with the bound signing context.
	EventSucceed EventKind = iota

	// EventError delivers OnError with Code and Message.
	EventError

	// EventFail delivers OnFailed.
	EventFail
)

// SimulatedAuthenticator is an Authenticator for headless environments and
// tests. Each Authenticate call replays the configured event script against
// the handler, after counting the attempt against a lockout budget the same
// way a fingerprint sensor throttles repeated attempts.
//
// With Async set, events are delivered from a separate goroutine per
// challenge, reproducing the arbitrary-goroutine delivery of a real
// platform. Synchronous delivery keeps tests deterministic.
type SimulatedAuthenticator struct {
	mu      sync.Mutex
	script  []Event
	async   bool
	limiter *rate.Limiter
}

// NewSimulatedAuthenticator creates a simulated authenticator that approves
// every challenge. The attempt budget allows bursts of 5 challenges,
// refilling one every 30 seconds; exhausting it reports ErrorLockout, like a
// throttled sensor.
func NewSimulatedAuthenticator() *SimulatedAuthenticator {
	return &SimulatedAuthenticator{
		script:  []Event{{Kind: EventSucceed}},
		limiter: rate.NewLimiter(rate.Every(30*time.Second), 5),
	}
}

// SetScript replaces the event script replayed on each challenge.
func (a *SimulatedAuthenticator) SetScript(events ...Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.script = append([]Event(nil), events...)
}

// SetAsync toggles goroutine delivery of events.
func (a *SimulatedAuthenticator) SetAsync(async bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.async = async
}

// Authenticate implements Authenticator.
func (a *SimulatedAuthenticator) Authenticate(prompt PromptInfo, crypto *signing.SigningContext, handler EventHandler) (Challenge, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	script := a.script
	async := a.async
	locked := !a.limiter.Allow()
	a.mu.Unlock()

	if locked {
		script = []Event{{Kind: EventError, Code: ErrorLockout,
			Message: "too many attempts"}}
	}

	ch := &simulatedChallenge{handler: handler, async: async}

	deliver := func() {
		for _, ev := range script {
			if ch.dismissed() {
				return
			}
			switch ev.Kind {
			case EventSucceed:
				handler.OnSucceeded(&Result{Crypto: crypto})
			case EventError:
				handler.OnError(ev.Code, ev.Message)
			case EventFail:
				handler.OnFailed()
			}
		}
	}

	if async {
		go deliver()
	} else {
		deliver()
	}
	return ch, nil
}

// simulatedChallenge dismisses by reporting the platform cancel code back
// through the handler, the way a real prompt dismissal does.
type simulatedChallenge struct {
	handler EventHandler
	async   bool

	mu     sync.Mutex
	closed bool
}

func (c *simulatedChallenge) dismissed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Cancel implements Challenge.
func (c *simulatedChallenge) Cancel() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.async {
		go c.handler.OnError(ErrorCanceled, "challenge dismissed")
	} else {
		c.handler.OnError(ErrorCanceled, "challenge dismissed")
	}
}
