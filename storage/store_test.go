package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotmap/config"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	return NewDiskStore(config.UploadConfig{
		Root: t.TempDir(),
		Dirs: []string{"images", "markers"},
	}, zerolog.Nop())
}

func TestDiskStore_SaveAndResolve(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Save([]byte("jpeg bytes"), "photo.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/images/"), "unexpected url: %s", url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), "extension not preserved: %s", url)

	path, err := store.Resolve(filepath.Base(url))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestDiskStore_SaveGeneratesUniqueNames(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save([]byte("a"), "photo.jpg")
	require.NoError(t, err)
	second, err := store.Save([]byte("b"), "photo.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDiskStore_ResolveSearchesLegacyDir(t *testing.T) {
	store := newTestStore(t)

	legacy := filepath.Join(store.root, "markers")
	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "old.png"), []byte("png"), 0o644))

	path, err := store.Resolve("old.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(legacy, "old.png"), path)
}

func TestDiskStore_ResolveMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve("nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStore_ResolveStripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Save([]byte("data"), "pic.gif")
	require.NoError(t, err)

	// Full logical URL resolves the same as a bare filename.
	path, err := store.Resolve(url)
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Base(url))

	_, err = store.Resolve("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStore_DeleteRemovesFromAnyRoot(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Save([]byte("x"), "a.jpg")
	require.NoError(t, err)
	store.Delete(url)
	_, err = store.Resolve(url)
	assert.ErrorIs(t, err, ErrNotFound)

	legacy := filepath.Join(store.root, "markers")
	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "b.jpg"), []byte("y"), 0o644))
	store.Delete("/uploads/markers/b.jpg")
	_, err = os.Stat(filepath.Join(legacy, "b.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStore_DeleteMissingIsNoOp(t *testing.T) {
	store := newTestStore(t)

	// Must not panic or touch anything.
	store.Delete("/uploads/images/ghost.jpg")
	store.Delete("")
}
