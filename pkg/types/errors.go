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

package types

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable, cross-platform error identifier callers can switch
// on. Native platform error codes are mapped into this fixed set; codes with
// no mapping fall back to KindGeneric with the native code preserved.
type ErrorKind string

const (
	// KindCanceled indicates the authentication challenge was dismissed by
	// the user or canceled programmatically.
	KindCanceled ErrorKind = "Canceled"

	// KindBiometryNotAvailable indicates the device has no usable biometric
	// hardware.
	KindBiometryNotAvailable ErrorKind = "BiometryNotAvailable"

	// KindBiometryNotEnrolled indicates no biometric credential is enrolled.
	// Recoverable: the caller may prompt the user to enroll.
	KindBiometryNotEnrolled ErrorKind = "BiometryNotEnrolled"

	// KindLockoutTemporarily indicates too many failed attempts; the sensor
	// is disabled until a timeout elapses.
	KindLockoutTemporarily ErrorKind = "LockoutTemporarily"

	// KindLockoutPermanent indicates the sensor is disabled until the user
	// unlocks with a strong credential.
	KindLockoutPermanent ErrorKind = "LockoutPermanent"

	// KindNonCompliantPrompt indicates a device-specific prompt
	// implementation escalated a soft failure into a hard error.
	KindNonCompliantPrompt ErrorKind = "NonCompliantPrompt"

	// KindInvalidPromptParameters indicates the prompt parameters failed
	// validation before any challenge was shown.
	KindInvalidPromptParameters ErrorKind = "InvalidPromptParameters"

	// KindInvalidSignature indicates the bound key was invalidated between
	// challenge binding and use (e.g., the biometric set changed).
	KindInvalidSignature ErrorKind = "InvalidSignature"

	// KindKeyGenerationFailed indicates key pair generation failed.
	KindKeyGenerationFailed ErrorKind = "KeyGenerationFailed"

	// KindGeneric is the fallback for unmapped native codes and unexpected
	// internal failures. The native code and original message are preserved
	// for diagnostics.
	KindGeneric ErrorKind = "Generic"
)

// Error is the caller-facing error type for all go-biokey operations. Every
// operation boundary converts internal failures into an Error carrying one
// of the stable ErrorKind identifiers.
type Error struct {
	// Kind is the stable cross-platform identifier.
	Kind ErrorKind

	// NativeCode is the original platform error code, when the error
	// originated from a platform callback. Zero otherwise.
	NativeCode int

	// Message is a human-readable description, preserving the original
	// platform or internal message for diagnostics.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.NativeCode != 0 {
		return fmt.Sprintf("biokey: %s (native code %d): %s", e.Kind, e.NativeCode, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("biokey: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("biokey: %s", e.Kind)
}

// Is supports errors.Is matching against another *Error by Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewPlatformError creates an Error for a platform-delivered failure,
// preserving the native error code.
func NewPlatformError(kind ErrorKind, nativeCode int, message string) *Error {
	return &Error{Kind: kind, NativeCode: nativeCode, Message: message}
}

// Convert returns err as a *Error, converting unrecognized errors into
// KindGeneric with the original message preserved. Returns nil for nil.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindGeneric, Message: err.Error()}
}

// IsKind reports whether err is a *Error with the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
