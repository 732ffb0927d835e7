package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeRootsPrunesDescendants(t *testing.T) {
	got := OptimizeRoots([]string{"/a", "/a/b", "/c"}, false)
	assert.Equal(t, []string{"/a", "/c"}, got)
}

func TestOptimizeRootsAncestorListedLater(t *testing.T) {
	// The ancestor wins regardless of input position.
	got := OptimizeRoots([]string{"/a/b/c", "/a"}, false)
	assert.Equal(t, []string{"/a"}, got)
}

func TestOptimizeRootsTrailingSeparators(t *testing.T) {
	got := OptimizeRoots([]string{"/a/", "/a/b/"}, false)
	assert.Equal(t, []string{"/a"}, got)
}

func TestOptimizeRootsCaseInsensitiveDuplicates(t *testing.T) {
	got := OptimizeRoots([]string{"/Products", "/products"}, false)
	require.Len(t, got, 1)
	assert.Equal(t, "/Products", got[0], "first-seen form is kept")
}

func TestOptimizeRootsSiblingPrefixNotPruned(t *testing.T) {
	// /ab is not a descendant of /a.
	got := OptimizeRoots([]string{"/a", "/ab"}, false)
	assert.Equal(t, []string{"/a", "/ab"}, got)
}

func TestOptimizeRootsPreservesInputOrder(t *testing.T) {
	got := OptimizeRoots([]string{"/z/deep", "/m", "/z"}, false)
	assert.Equal(t, []string{"/m", "/z"}, got)
}

func TestOptimizeRootsSkipsEmpty(t *testing.T) {
	got := OptimizeRoots([]string{"", "  ", "/a"}, false)
	assert.Equal(t, []string{"/a"}, got)
}

func TestOptimizeRootsFilesystemRootCoversAll(t *testing.T) {
	got := OptimizeRoots([]string{"/", "/a", "/b/c"}, false)
	assert.Equal(t, []string{"/"}, got)
}

func TestOptimizeRootsResolvesSymlinks(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real")
	require.NoError(t, os.MkdirAll(real, 0o755))
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(real, link))

	resolved, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)

	// With resolution on, the link collapses onto its target.
	got := OptimizeRoots([]string{real, link}, true)
	assert.Equal(t, []string{resolved}, got)

	// Off by default: both survive as distinct roots.
	got = OptimizeRoots([]string{real, link}, false)
	assert.Len(t, got, 2)
}
