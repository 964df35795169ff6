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
)

// Dispatcher models the UI-owning thread. Displaying a biometric challenge
// must always happen on it, regardless of which goroutine requested the
// signing operation. Result callbacks are not dispatched: the platform
// delivers them on arbitrary goroutines.
type Dispatcher interface {
	// Dispatch schedules fn on the UI-owning thread.
	Dispatch(fn func())
}

// SynchronousDispatcher runs functions inline on the calling goroutine.
// Intended for tests and headless environments.
type SynchronousDispatcher struct{}

// Dispatch implements Dispatcher.
func (SynchronousDispatcher) Dispatch(fn func()) {
	fn()
}

// SerialDispatcher executes functions one at a time, in order, on a single
// dedicated goroutine. This mirrors the single UI thread of the platforms
// the biometric prompt lives on.
type SerialDispatcher struct {
	queue     chan func()
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSerialDispatcher creates and starts a serial dispatcher.
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		queue: make(chan func(), 16),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *SerialDispatcher) run() {
	defer d.wg.Done()
	for fn := range d.queue {
		fn()
	}
}

// Dispatch schedules fn on the dispatcher goroutine. Dispatch after Close
// panics, the same way posting to a dead looper would.
func (d *SerialDispatcher) Dispatch(fn func()) {
	d.queue <- fn
}

// Close stops the dispatcher after draining queued functions.
func (d *SerialDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
