package filesystem

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootResolverLongestPrefix(t *testing.T) {
	rr := NewRootResolver([]string{"/mnt/nas/products", "/mnt/nas/products/archive", "/mnt/other"})

	assert.Equal(t, "archive", rr.Resolve("/mnt/nas/products/archive/2024/x.jpg"))
	assert.Equal(t, "products", rr.Resolve("/mnt/nas/products/x.jpg"))
	assert.Equal(t, "other", rr.Resolve("/mnt/other/y.mp4"))
	assert.Equal(t, "unknown", rr.Resolve("/elsewhere/z"))
}

func TestRootResolverExactRootPath(t *testing.T) {
	rr := NewRootResolver([]string{"/mnt/nas/products"})
	assert.Equal(t, "products", rr.Resolve("/mnt/nas/products"))
}

func TestRootResolverNil(t *testing.T) {
	var rr *RootResolver
	assert.Equal(t, "unknown", rr.Resolve("/anything"))
}

func TestIsStaleError(t *testing.T) {
	assert.True(t, isStaleError(syscall.ESTALE))
	assert.True(t, isStaleError(&os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}))
	assert.False(t, isStaleError(syscall.ENOENT))
	assert.False(t, isStaleError(nil))
	assert.False(t, isStaleError(os.ErrNotExist))
}

func TestStatWithRetryNonStaleErrorImmediate(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := StatWithRetry(missing, DefaultRetryConfig())
	assert.True(t, os.IsNotExist(err), "non-stale errors pass through unretried")
}

func TestReadDirWithRetrySuccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenWithRetrySuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	f, err := OpenWithRetry(path, DefaultRetryConfig())
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestWithRetryRecoversFromStale(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialBackoff = 0
	config.MaxBackoff = 0

	attempts := 0
	result, err := withRetry("stat", "/mnt/nas/x", config, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", syscall.ESTALE
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	config := RetryConfig{MaxRetries: 2}

	attempts := 0
	_, err := withRetry("readdir", "/mnt/nas/x", config, func() (int, error) {
		attempts++
		return 0, syscall.ESTALE
	})
	assert.ErrorIs(t, err, syscall.ESTALE)
	assert.Equal(t, 3, attempts, "initial attempt plus MaxRetries")
}
