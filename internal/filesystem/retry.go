// Package filesystem provides filesystem operations with retry logic for
// network-mounted storage.
package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"refsearch/internal/logging"
	"refsearch/internal/metrics"
)

// RootResolver maps file paths to the search root they live under, for
// metric labeling. It uses longest-prefix matching on absolute paths.
type RootResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []rootMount
}

type rootMount struct {
	path  string // absolute path with trailing slash
	label string // short root label (e.g. "products")
}

// NewRootResolver creates a resolver from a list of search root paths.
// Each root is labeled by its final path component.
func NewRootResolver(roots []string) *RootResolver {
	mounts := make([]rootMount, 0, len(roots))
	for _, root := range roots {
		absPath, err := filepath.Abs(root)
		if err != nil {
			absPath = root
		}
		label := filepath.Base(absPath)
		if !strings.HasSuffix(absPath, string(os.PathSeparator)) {
			absPath += string(os.PathSeparator)
		}
		mounts = append(mounts, rootMount{path: absPath, label: label})
	}

	// Longest (most specific) prefix matches first
	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &RootResolver{mounts: mounts}
}

// Resolve returns the root label for a given file path.
// Returns "unknown" if the path is outside every configured root.
func (rr *RootResolver) Resolve(path string) string {
	if rr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range rr.mounts {
		if strings.HasPrefix(absPath+string(os.PathSeparator), mount.path) || strings.HasPrefix(absPath, mount.path) {
			return mount.label
		}
	}

	return "unknown"
}

// defaultResolver is the package-level resolver set at startup
var defaultResolver *RootResolver

// SetDefaultRootResolver sets the package-level root resolver.
// Call this once at startup after loading configuration.
func SetDefaultRootResolver(rr *RootResolver) {
	defaultResolver = rr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// RootResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	RootResolver *RootResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveRoot(path string) string {
	if c.RootResolver != nil {
		return c.RootResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isStaleError checks if an error is an NFS stale file handle error
func isStaleError(err error) bool {
	if err == nil {
		return false
	}

	// ESTALE (stale file handle) - errno 116 on Linux
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn, retrying on NFS stale file handle errors with
// exponential backoff. Non-stale errors are returned immediately.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	root := config.resolveRoot(path)
	var zero T
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(op, root).Inc()
			}
			return result, nil
		}

		lastErr = err

		if !isStaleError(err) {
			return zero, err
		}

		metrics.FilesystemStaleErrors.WithLabelValues(op, root).Inc()

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			metrics.FilesystemRetryAttempts.WithLabelValues(op, root).Inc()
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(op, root).Inc()
	return zero, lastErr
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file handle errors
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
