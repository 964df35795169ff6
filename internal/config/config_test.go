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

package config

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biokey/pkg/biometric"
	"github.com/jeremyhahn/go-biokey/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /var/lib/biokey
logging:
  debug: true
secure_store:
  security_level: strongbox
  biometry_enrolled: true
device:
  brand: OnePlus
  model: ONEPLUS A6013
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/biokey", cfg.Storage.Path)
	assert.True(t, cfg.Logging.Debug)
	assert.Equal(t, types.SecurityLevelStrongBox, cfg.SecurityLevel())
	assert.True(t, cfg.SecureStore.BiometryEnrolled)
	assert.Equal(t, "OnePlus", cfg.DeviceClass().Brand)
	assert.Equal(t, "ONEPLUS A6013", cfg.DeviceClass().Model)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "storage: [not: valid")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownSecurityLevel(t *testing.T) {
	path := writeConfig(t, `
secure_store:
  security_level: quantum
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /var/lib/biokey
`)

	t.Setenv("BIOKEY_DATA_DIR", "/tmp/override")
	t.Setenv("BIOKEY_DEBUG", "true")
	t.Setenv("BIOKEY_DEVICE_BRAND", "acme")
	t.Setenv("BIOKEY_DEVICE_MODEL", "X1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override", cfg.Storage.Path)
	assert.True(t, cfg.Logging.Debug)
	assert.Equal(t, "acme", cfg.Device.Brand)
	assert.Equal(t, "X1", cfg.Device.Model)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, types.SecurityLevelSoftware, cfg.SecurityLevel())
	assert.True(t, cfg.SecureStore.BiometryEnrolled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.Prompt.Title)
	require.NoError(t, cfg.Validate())
}

func TestCreateService_InMemory(t *testing.T) {
	cfg := DefaultConfig()

	svc, err := cfg.CreateService(nil)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	publicKey, err := svc.Generate(true)
	require.NoError(t, err)
	assert.True(t, svc.HasKey(publicKey))
}

func TestCreateService_DenyingAuthenticator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Authenticator.Approve = false

	svc, err := cfg.CreateService(nil)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	publicKey, err := svc.Generate(true)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("payload"))
	_, err = svc.SignSync(publicKey, digest[:], biometric.PromptInfo{
		Title:       cfg.Prompt.Title,
		Message:     cfg.Prompt.Message,
		CancelLabel: cfg.Prompt.CancelLabel,
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindCanceled))
}

func TestCreateService_FileBacked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = t.TempDir()

	svc, err := cfg.CreateService(nil)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	publicKey, err := svc.Generate(false)
	require.NoError(t, err)
	assert.True(t, svc.HasKey(publicKey))

	// Key material and aliases are persisted under the data dir
	entries, err := os.ReadDir(cfg.Storage.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
