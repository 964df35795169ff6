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

package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biokey/pkg/storage"
)

func TestNew_EmptyRoot(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestNew_CreatesRootDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "store")

	backend, err := New(root)
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	}
}

func TestFileStorage_PutAndGet(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	key := "aliases/test.alias"
	value := []byte("some-alias")

	require.NoError(t, backend.Put(key, value, nil))

	result, err := backend.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, result)
}

func TestFileStorage_Get_NotFound(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	_, err = backend.Get("nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_Put_Overwrite(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("key", []byte("first"), nil))
	require.NoError(t, backend.Put("key", []byte("second"), nil))

	result, err := backend.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), result)
}

func TestFileStorage_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permissions are not meaningful on windows")
	}

	root := t.TempDir()
	backend, err := New(root)
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("keys/secret.key", []byte("material"), nil))

	info, err := os.Stat(filepath.Join(root, "keys", "secret.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_Delete(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("key", []byte("value"), nil))
	require.NoError(t, backend.Delete("key"))

	_, err = backend.Get("key")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = backend.Delete("key")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_List_SortedWithPrefix(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("aliases/b.alias", []byte("2"), nil))
	require.NoError(t, backend.Put("aliases/a.alias", []byte("1"), nil))
	require.NoError(t, backend.Put("keys/c.key", []byte("3"), nil))

	keys, err := backend.List("aliases/")
	require.NoError(t, err)
	assert.Equal(t, []string{"aliases/a.alias", "aliases/b.alias"}, keys)

	all, err := backend.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStorage_Exists(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	exists, err := backend.Exists("key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, backend.Put("key", []byte("value"), nil))

	exists, err = backend.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileStorage_RejectsUnsafeKeys(t *testing.T) {
	backend, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	for _, key := range []string{
		"",
		"../escape",
		"../../etc/passwd",
		"/absolute/path",
		"has\x00null",
	} {
		err := backend.Put(key, []byte("value"), nil)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "key %q should be rejected", key)
	}
}
