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
	"strings"
	"sync"

	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// QuirkTable records device classes whose biometric prompt escalates a soft
// authentication failure into a hard error event instead of keeping the
// prompt open. Membership is keyed on vendor + model: an affected brand can
// carry an allow list of models known to behave correctly.
//
// The table is a capability lookup, not inline branching: new device classes
// are added without touching the session state machine.
type QuirkTable struct {
	mu sync.RWMutex
	// brand (lower case) -> set of exempt models
	brands map[string]map[string]bool
}

// NewQuirkTable creates an empty quirk table.
func NewQuirkTable() *QuirkTable {
	return &QuirkTable{
		brands: make(map[string]map[string]bool),
	}
}

// DefaultQuirkTable returns the table of known non-compliant device classes:
// OnePlus devices, except the models predating the broken prompt
// implementation.
//
// See: https://forums.oneplus.com/threads/oneplus-7-pro-fingerprint-biometricprompt-does-not-show.1035821/
func DefaultQuirkTable() *QuirkTable {
	t := NewQuirkTable()
	t.AddBrand("oneplus",
		"A0001",                                    // OnePlus One
		"ONE A2001", "ONE A2003", "ONE A2005",      // OnePlus 2
		"ONE E1001", "ONE E1003", "ONE E1005",      // OnePlus X
		"ONEPLUS A3000", "ONEPLUS SM-A3000", "ONEPLUS A3003", // OnePlus 3
		"ONEPLUS A3010", // OnePlus 3T
		"ONEPLUS A5000", // OnePlus 5
		"ONEPLUS A5010", // OnePlus 5T
		"ONEPLUS A6000", "ONEPLUS A6003", // OnePlus 6
	)
	return t
}

// AddBrand marks every device of brand as affected, except the listed exempt
// models.
func (t *QuirkTable) AddBrand(brand string, exemptModels ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	exempt := make(map[string]bool, len(exemptModels))
	for _, m := range exemptModels {
		exempt[m] = true
	}
	t.brands[strings.ToLower(brand)] = exempt
}

// Affected reports whether the device class has the non-compliant prompt.
func (t *QuirkTable) Affected(device types.DeviceClass) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exempt, ok := t.brands[strings.ToLower(device.Brand)]
	if !ok {
		return false
	}
	return !exempt[device.Model]
}
