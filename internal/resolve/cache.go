package resolve

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/franz/music-curator/internal/util"
)

// Cache persists resolved candidates in a SQLite database so repeated
// runs do not re-query the providers. It wraps a Resolver and answers
// from disk when it can.
type Cache struct {
	db       *sql.DB
	resolver *Resolver
}

// OpenCache opens (creating if needed) the cache database at path and
// prepares the schema
func OpenCache(path string, resolver *Resolver) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, resolver: resolver}
	if err := c.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolve_cache (
		query TEXT PRIMARY KEY,
		fields TEXT NOT NULL, -- JSON object of tag key/value pairs
		provider TEXT,
		cached_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		hit_count INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_resolve_provider ON resolve_cache(provider);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create resolve_cache table: %w", err)
	}

	return nil
}

// Resolve answers from the cache when possible and falls back to the
// wrapped resolver on a miss. Unresolved queries are not cached, so a
// provider that comes online later still gets a chance.
func (c *Cache) Resolve(ctx context.Context, query string) (Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	key := strings.ToLower(strings.TrimSpace(query))

	cached, err := c.getFromCache(key)
	if err == nil {
		util.DebugLog("resolve cache hit: '%s'", query)
		c.incrementHitCount(key)
		return cached, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		util.WarnLog("resolve cache lookup failed: %v", err)
	}

	util.DebugLog("resolve cache miss: '%s', querying providers", query)
	candidate, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.storeInCache(key, candidate); err != nil {
		util.WarnLog("Failed to cache resolve result: %v", err)
		// Don't fail the operation if caching fails
	}

	return candidate, nil
}

func (c *Cache) getFromCache(key string) (Candidate, error) {
	var fieldsStr string
	err := c.db.QueryRow(
		`SELECT fields FROM resolve_cache WHERE query = ?`, key,
	).Scan(&fieldsStr)

	if err == sql.ErrNoRows {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var candidate Candidate
	if err := json.Unmarshal([]byte(fieldsStr), &candidate); err != nil {
		return nil, fmt.Errorf("failed to decode cached fields: %w", err)
	}

	return candidate, nil
}

func (c *Cache) storeInCache(key string, candidate Candidate) error {
	fields, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO resolve_cache
		(query, fields, cached_at, hit_count)
		VALUES (?, ?, ?, COALESCE((SELECT hit_count FROM resolve_cache WHERE query = ?), 0))
	`

	_, err = c.db.Exec(query, key, string(fields), time.Now(), key)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

func (c *Cache) incrementHitCount(key string) {
	_, err := c.db.Exec(`UPDATE resolve_cache SET hit_count = hit_count + 1 WHERE query = ?`, key)
	if err != nil {
		util.DebugLog("Failed to increment hit count: %v", err)
	}
}

// Stats returns the number of cached queries and total hits served
func (c *Cache) Stats() (entries int, totalHits int64, err error) {
	err = c.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM resolve_cache`,
	).Scan(&entries, &totalHits)
	return
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM resolve_cache")
	return err
}

// ClearOldEntries removes entries older than the given duration and
// reports how many were dropped
func (c *Cache) ClearOldEntries(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := c.db.Exec("DELETE FROM resolve_cache WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, err
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}
