package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) string {
	t.Helper()
	dbDir := t.TempDir()
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("SEARCH_ROOTS", "")
	t.Setenv("ROOTS_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("RESOLVE_SYMLINKS", "")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("SEARCH_WORKERS", "")
	return dbDir
}

func TestLoadConfigDefaults(t *testing.T) {
	dbDir := setBaseEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Empty(t, config.Roots)
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, 24*time.Hour, config.CacheTTL)
	assert.Zero(t, config.SearchWorkers)
	assert.False(t, config.ResolveSymlinks)
	assert.True(t, config.MetricsEnabled)
	assert.Equal(t, filepath.Join(dbDir, "refsearch.db"), config.DatabasePath)
}

func TestLoadConfigEnvRoots(t *testing.T) {
	setBaseEnv(t)
	rootA := t.TempDir()
	rootB := t.TempDir()
	t.Setenv("SEARCH_ROOTS", rootA+string(os.PathListSeparator)+rootB)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("RESOLVE_SYMLINKS", "true")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{rootA, rootB}, config.Roots)
	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, 30*time.Minute, config.CacheTTL)
	assert.True(t, config.ResolveSymlinks)
}

func TestLoadConfigInvalidTTLFallsBack(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_TTL", "soon")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, config.CacheTTL)
}

func TestLoadConfigRootsFile(t *testing.T) {
	setBaseEnv(t)
	rootA := t.TempDir()
	rootB := t.TempDir()
	rootC := t.TempDir()

	rootsFile := filepath.Join(t.TempDir(), "roots.yaml")
	yaml := "roots:\n  - " + rootA + "\n  - " + rootB + "\nresolve_symlinks: true\n"
	require.NoError(t, os.WriteFile(rootsFile, []byte(yaml), 0o644))
	t.Setenv("ROOTS_FILE", rootsFile)
	t.Setenv("SEARCH_ROOTS", rootC)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{rootA, rootB, rootC}, config.Roots, "file roots come before environment roots")
	assert.True(t, config.ResolveSymlinks, "the roots file can set the symlink policy")
}

func TestLoadConfigRootsFileInvalid(t *testing.T) {
	setBaseEnv(t)
	rootsFile := filepath.Join(t.TempDir(), "roots.yaml")
	require.NoError(t, os.WriteFile(rootsFile, []byte("roots: {broken"), 0o644))
	t.Setenv("ROOTS_FILE", rootsFile)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRootsFileMissing(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ROOTS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigCreatesDatabaseDir(t *testing.T) {
	setBaseEnv(t)
	dbDir := filepath.Join(t.TempDir(), "nested", "db")
	t.Setenv("DATABASE_DIR", dbDir)

	config, err := LoadConfig()
	require.NoError(t, err)

	info, err := os.Stat(config.DatabaseDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
}
