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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynchronousDispatcher_RunsInline(t *testing.T) {
	ran := false
	SynchronousDispatcher{}.Dispatch(func() { ran = true })
	assert.True(t, ran)
}

func TestSerialDispatcher_PreservesOrder(t *testing.T) {
	d := NewSerialDispatcher()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		d.Dispatch(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()
	d.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestSerialDispatcher_CloseDrainsQueue(t *testing.T) {
	d := NewSerialDispatcher()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		d.Dispatch(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	// Close waits for every queued function
	d.Close()
	assert.Equal(t, 5, count)

	// Double close is a no-op
	d.Close()
}
