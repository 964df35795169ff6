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

package securestore

import "errors"

var (
	// ErrKeyNotFound indicates the alias references no private key entry
	// (deleted, invalidated and purged, or never existed).
	ErrKeyNotFound = errors.New("securestore: key not found")

	// ErrKeyInvalidated indicates the key material was revoked by the
	// platform between handle creation and use.
	ErrKeyInvalidated = errors.New("securestore: key invalidated")

	// ErrBiometryNotEnrolled indicates a restricted key was requested but
	// no biometric credential is enrolled on the device.
	ErrBiometryNotEnrolled = errors.New("securestore: no biometric credential enrolled")

	// ErrGenerationFailed indicates key pair generation failed.
	ErrGenerationFailed = errors.New("securestore: key generation failed")

	// ErrClosed indicates the store has been closed and cannot be used.
	ErrClosed = errors.New("securestore: closed")
)
