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

package storage

import (
	"strings"
)

// AliasPath returns the storage path for the alias mapping of the public key
// with the given storage ID. The path follows the convention:
// aliases/{id}.alias
func AliasPath(id string) string {
	return "aliases/" + id + ".alias"
}

// KeyPath returns the storage path for the private key material stored under
// the given alias. The path follows the convention: keys/{alias}.key
func KeyPath(alias string) string {
	return "keys/" + alias + ".key"
}

// KeyInfoPath returns the storage path for the metadata sidecar of the key
// stored under the given alias. The path follows the convention:
// keys/{alias}.info
func KeyInfoPath(alias string) string {
	return "keys/" + alias + ".info"
}

// ListAliases retrieves all public key storage IDs that have an alias
// mapping by listing everything under the "aliases/" prefix.
// Returns an empty slice if no mappings exist.
// Returns an error if the backend operation fails.
func ListAliases(backend Backend) ([]string, error) {
	keys, err := backend.List("aliases/")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		// Strip "aliases/" prefix and ".alias" suffix
		id := strings.TrimPrefix(k, "aliases/")
		id = strings.TrimSuffix(id, ".alias")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
