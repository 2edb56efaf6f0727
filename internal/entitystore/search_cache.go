// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetSearchCacheEntry returns the persisted entry for a key regardless
// of age; TTL expiry is applied by the caller at read time (spec §3),
// since the orchestrator's in-memory cache and this persisted layer use
// different TTLs.
func (s *Store) GetSearchCacheEntry(ctx context.Context, key string) (*SearchCacheEntry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT cache_key, payload, context, created_at, updated_at FROM search_cache_entries WHERE cache_key = ?`, key)

	var e SearchCacheEntry
	var context sql.NullString
	err := row.Scan(&e.CacheKey, &e.Payload, &context, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan search cache entry: %w", err)
	}
	e.Context = context.String
	return &e, nil
}

// PutSearchCacheEntry persists a search result payload, overwriting any
// existing entry for the key.
func (s *Store) PutSearchCacheEntry(ctx context.Context, e *SearchCacheEntry) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	query := `INSERT INTO search_cache_entries (cache_key, payload, context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			context = EXCLUDED.context,
			updated_at = EXCLUDED.updated_at`
	_, err := s.conn.ExecContext(ctx, query, e.CacheKey, e.Payload, nullableString(e.Context), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("entitystore: put search cache entry: %w", err)
	}
	return nil
}

// PruneSearchCacheEntries deletes persisted entries older than maxAge,
// called periodically by the daily refresh loop to bound table growth.
func (s *Store) PruneSearchCacheEntries(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.conn.ExecContext(ctx, `DELETE FROM search_cache_entries WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("entitystore: prune search cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
