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

package signing

import "errors"

var (
	// ErrKeyUnavailable indicates the alias has no usable private key:
	// deleted, invalidated, or never existed.
	ErrKeyUnavailable = errors.New("signing: key unavailable")

	// ErrSignatureFailed indicates the underlying key was invalidated
	// between context creation and use.
	ErrSignatureFailed = errors.New("signing: signature failed")

	// ErrInvalidPublicKey indicates the public key encoding cannot be
	// decoded into a valid curve point.
	ErrInvalidPublicKey = errors.New("signing: invalid public key")
)
