package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"refsearch/internal/logging"
	"refsearch/internal/metrics"
)

// Default timeout for cache queries
const defaultTimeout = 5 * time.Second

// Cache is a SQLite-backed store of completed search result sets, keyed
// by the criteria hash. Entries expire after the configured TTL; a TTL of
// zero or less disables expiry. There is no filesystem-change
// invalidation: a criteria change always produces a new key, but a stale
// tree behind an unchanged key is served until the entry expires.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// New opens (or creates) the cache database at dbPath. The parent
// directory must exist and be writable.
func New(ctx context.Context, dbPath string, ttl time.Duration) (*Cache, error) {
	// WAL mode and busy_timeout prevent "database is locked" errors when
	// the purge loop and a finishing search write concurrently.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close cache database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	c := &Cache{db: db, ttl: ttl}
	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close cache database after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	logging.Info("result cache initialized at %s (ttl %v)", dbPath, ttl)
	return c, nil
}

func (c *Cache) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS result_cache (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_result_cache_created_at ON result_cache(created_at);
	`
	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := c.db.ExecContext(initCtx, schema)
	return err
}

// Get returns the stored payload for key, or false when absent or expired.
// Expired rows are deleted lazily on lookup.
func (c *Cache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var payload []byte
	var createdAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM result_cache WHERE key = ?`, key,
	).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		logging.Error("cache lookup failed for key %s: %v", key, err)
		return nil, false
	}

	if c.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > c.ttl {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM result_cache WHERE key = ?`, key); err != nil {
			logging.Warn("failed to delete expired cache entry %s: %v", key, err)
		}
		return nil, false
	}
	return payload, true
}

// Put stores (or replaces) the payload for key. Failures are logged, not
// returned: a broken cache degrades to re-running the traversal.
func (c *Cache) Put(key string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO result_cache (key, payload, created_at) VALUES (?, ?, strftime('%s', 'now'))
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, payload)
	if err != nil {
		logging.Error("failed to store cache entry %s: %v", key, err)
	}
}

// PurgeExpired removes entries older than the TTL. A no-op when expiry is
// disabled.
func (c *Cache) PurgeExpired() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM result_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		metrics.CacheEntriesPurged.Add(float64(purged))
		logging.Debug("purged %d expired cache entries", purged)
	}
	return purged, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
