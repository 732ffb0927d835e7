package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"refsearch/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Roots           []string
	DatabaseDir     string
	Port            string
	CacheTTL        time.Duration
	SearchWorkers   int
	ResolveSymlinks bool
	MetricsEnabled  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// rootsFile is the optional YAML file listing default search roots,
// pointed to by ROOTS_FILE. Environment roots are appended after it.
type rootsFile struct {
	Roots           []string `yaml:"roots"`
	ResolveSymlinks *bool    `yaml:"resolve_symlinks"`
}

// LoadConfig loads and validates configuration from environment variables
// and the optional roots file.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	rootsEnv := getEnv("SEARCH_ROOTS", "")
	rootsFilePath := getEnv("ROOTS_FILE", "")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	cacheTTLStr := getEnv("CACHE_TTL", "24h")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	resolveSymlinks := getEnvBool("RESOLVE_SYMLINKS", false)
	searchWorkers := getEnvInt("SEARCH_WORKERS", 0)

	logging.Info("  SEARCH_ROOTS:      %s", rootsEnv)
	logging.Info("  ROOTS_FILE:        %s", rootsFilePath)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  CACHE_TTL:         %s", cacheTTLStr)
	logging.Info("  SEARCH_WORKERS:    %d (0 = auto)", searchWorkers)
	logging.Info("  RESOLVE_SYMLINKS:  %v", resolveSymlinks)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		logging.Warn("  Invalid CACHE_TTL, using default: 24h")
		cacheTTL = 24 * time.Hour
	}

	config := &Config{
		DatabaseDir:     databaseDir,
		Port:            port,
		CacheTTL:        cacheTTL,
		SearchWorkers:   searchWorkers,
		ResolveSymlinks: resolveSymlinks,
		MetricsEnabled:  metricsEnabled,
		LogHealthChecks: logHealthChecks,
	}

	// Roots file first, then environment roots.
	if rootsFilePath != "" {
		fileRoots, fileResolve, err := loadRootsFile(rootsFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load roots file: %w", err)
		}
		config.Roots = append(config.Roots, fileRoots...)
		if fileResolve != nil {
			config.ResolveSymlinks = *fileResolve
		}
	}
	if rootsEnv != "" {
		config.Roots = append(config.Roots, filepath.SplitList(rootsEnv)...)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	config.DatabaseDir = databaseDir
	config.DatabasePath = filepath.Join(databaseDir, "refsearch.db")
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for the result cache): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	logging.Info("")
	logging.Info("  Default search roots: %d configured", len(config.Roots))
	for _, root := range config.Roots {
		if _, err := os.Stat(root); err != nil {
			logging.Warn("    %s (unreachable: %v)", root, err)
		} else {
			logging.Info("    %s", root)
		}
	}

	return config, nil
}

func loadRootsFile(path string) ([]string, *bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var parsed rootsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return parsed.Roots, parsed.ResolveSymlinks, nil
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Info("  Creating %s directory: %s", name, path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s directory: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path exists but is not a directory: %s", name, path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove write-test file %s: %v", testFile, err)
	}
	return nil
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  refsearch - reference and image search engine")
	logging.Info("  version %s (%s)", Version, Commit)
	logging.Info("============================================================")
}

func logSystemInfo() {
	logging.Info("  Go:        %s", GoVersion)
	logging.Info("  OS/Arch:   %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:      %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	logging.Info("")
}

// LogFatal logs a fatal startup error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid boolean for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
