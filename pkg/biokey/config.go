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

package biokey

import (
	"errors"

	"github.com/jeremyhahn/go-biokey/pkg/biometric"
	"github.com/jeremyhahn/go-biokey/pkg/logging"
	"github.com/jeremyhahn/go-biokey/pkg/securestore"
	"github.com/jeremyhahn/go-biokey/pkg/storage"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// Config assembles a Service.
type Config struct {
	// Keys is the secure key store holding private keys. Required.
	Keys securestore.Store

	// Storage backs the public key to alias mapping. Required.
	Storage storage.Backend

	// Authenticator presents biometric challenges. Required.
	Authenticator biometric.Authenticator

	// Dispatcher schedules challenge display on the UI-owning thread.
	// Defaults to SynchronousDispatcher.
	Dispatcher biometric.Dispatcher

	// Device identifies the device class for vendor quirk lookups.
	Device types.DeviceClass

	// Quirks overrides the default vendor quirk table.
	Quirks *biometric.QuirkTable

	// Codes overrides the default native error code mapping.
	Codes *biometric.CodeMapper

	// Logger defaults to the package default logger.
	Logger *logging.Logger
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Keys == nil {
		return errors.New("biokey: secure key store is required")
	}
	if c.Storage == nil {
		return errors.New("biokey: storage backend is required")
	}
	if c.Authenticator == nil {
		return errors.New("biokey: authenticator is required")
	}
	if c.Dispatcher == nil {
		c.Dispatcher = biometric.SynchronousDispatcher{}
	}
	if c.Logger == nil {
		c.Logger = logging.DefaultLogger()
	}
	return nil
}
