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

// Package attestation classifies the secure-storage security level backing a
// key, proving whether its private material is confined to hardware.
//
// The classification scheme is platform- and OS-version-dependent: older
// platforms expose a boolean "inside secure hardware", newer ones a graded
// level (software, trusted execution environment, dedicated secure element).
// The checker normalizes both schemes into a single boolean answer.
package attestation

import (
	"github.com/jeremyhahn/go-biokey/pkg/aliasstore"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Checker reads secure-storage key metadata and classifies whether a key is
// hardware backed.
type Checker struct {
	aliases *aliasstore.Store
	keys    securestore.Store
	logger  *logging.Logger
}

// NewChecker creates a hardware attestation checker.
func NewChecker(aliases *aliasstore.Store, keys securestore.Store, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Checker{
		aliases: aliases,
		keys:    keys,
		logger:  logger,
	}
}

// IsHardwareBacked reports whether the key identified by publicKey executes
// its operations inside a trusted execution environment or dedicated secure
// element (or, on the legacy classification scheme, inside secure hardware).
//
// A key with no alias mapping or unreadable metadata reports false; the
// check never fails.
func (c *Checker) IsHardwareBacked(publicKey types.PublicKey) bool {
	alias, ok := c.aliases.Get(publicKey)
	if !ok {
		return false
	}

	info, err := c.keys.KeyInfo(alias)
	if err != nil {
		c.logger.Debug("attestation metadata unreadable", "alias", alias, "error", err)
		return false
	}

	return info.HardwareBacked()
}
