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
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Platform-native biometric error codes, following the AOSP BiometricPrompt
// constants.
const (
	ErrorHardwareUnavailable = 1
	ErrorUnableToProcess     = 2
	ErrorTimeout             = 3
	ErrorNoSpace             = 4
	ErrorCanceled            = 5
	ErrorLockout             = 7
	ErrorVendor              = 8
	ErrorLockoutPermanent    = 9
	ErrorUserCanceled        = 10
	ErrorNoBiometrics        = 11
	ErrorHardwareNotPresent  = 12
	ErrorNegativeButton      = 13
	ErrorNoDeviceCredential  = 14
)

// CodeMapper converts platform-native error codes into the stable
// cross-platform error taxonomy. The mapping is table-driven so each
// platform adapter supplies its own table; codes with no entry fall back to
// KindGeneric with the native code preserved for diagnostics.
type CodeMapper struct {
	table map[int]types.ErrorKind
}

// NewCodeMapper creates a mapper with the given native code table.
func NewCodeMapper(table map[int]types.ErrorKind) *CodeMapper {
	if table == nil {
		table = map[int]types.ErrorKind{}
	}
	return &CodeMapper{table: table}
}

// DefaultCodeMapper returns the mapper for the AOSP BiometricPrompt codes.
func DefaultCodeMapper() *CodeMapper {
	return NewCodeMapper(map[int]types.ErrorKind{
		ErrorCanceled:           types.KindCanceled,
		ErrorUserCanceled:       types.KindCanceled,
		ErrorNegativeButton:     types.KindCanceled,
		ErrorHardwareUnavailable: types.KindBiometryNotAvailable,
		ErrorHardwareNotPresent:  types.KindBiometryNotAvailable,
		ErrorNoBiometrics:        types.KindBiometryNotEnrolled,
		ErrorLockout:             types.KindLockoutTemporarily,
		ErrorLockoutPermanent:    types.KindLockoutPermanent,
	})
}

// Map converts a native code and message into a taxonomy error, preserving
// the native code on the result.
func (m *CodeMapper) Map(code int, message string) *types.Error {
	kind, ok := m.table[code]
	if !ok {
		kind = types.KindGeneric
	}
	return types.NewPlatformError(kind, code, message)
}
