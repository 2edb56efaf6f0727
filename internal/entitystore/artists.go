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

// UpsertArtist inserts a new artist row, or updates the existing one
// located by provider id (when set) or by normalized name. On a
// residual unique-constraint conflict the row is re-read and returned
// with ErrConflict so the caller can merge and retry, per the Entity
// Store contract's atomic-upsert-or-rollback-and-reread guarantee.
func (s *Store) UpsertArtist(ctx context.Context, a *Artist) (*Artist, error) {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	existing, err := s.findArtistForUpsert(ctx, a)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if existing != nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return s.updateArtist(ctx, a)
	}

	insertQuery := `INSERT INTO artists (
		provider_id, name, normalized_name, genres, image_ref,
		popularity, followers, bio_summary, bio_text,
		created_at, updated_at, last_refreshed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`

	row := s.conn.QueryRowContext(ctx, insertQuery,
		nullableString(a.ProviderID), a.Name, a.NormalizedName, a.Genres, nullableString(a.ImageRef),
		a.Popularity, a.Followers, nullableString(a.BioSummary), nullableString(a.BioText),
		a.CreatedAt, a.UpdatedAt, nullableTime(a.LastRefreshedAt),
	)
	if err := row.Scan(&a.ID); err != nil {
		if isUniqueConstraintError(err) {
			conflict, reReadErr := s.findArtistForUpsert(ctx, a)
			if reReadErr != nil {
				return nil, fmt.Errorf("entitystore: upsert artist conflict re-read: %w", reReadErr)
			}
			return conflict, ErrConflict
		}
		return nil, fmt.Errorf("entitystore: insert artist: %w", err)
	}
	return a, nil
}

func (s *Store) updateArtist(ctx context.Context, a *Artist) (*Artist, error) {
	query := `UPDATE artists SET
		provider_id = ?, name = ?, normalized_name = ?, genres = ?, image_ref = ?,
		popularity = ?, followers = ?, bio_summary = ?, bio_text = ?,
		updated_at = ?, last_refreshed_at = ?
	WHERE id = ?`

	_, err := s.conn.ExecContext(ctx, query,
		nullableString(a.ProviderID), a.Name, a.NormalizedName, a.Genres, nullableString(a.ImageRef),
		a.Popularity, a.Followers, nullableString(a.BioSummary), nullableString(a.BioText),
		a.UpdatedAt, nullableTime(a.LastRefreshedAt),
		a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("entitystore: update artist: %w", err)
	}
	return a, nil
}

// findArtistForUpsert locates the row an incoming artist should merge
// into: by provider id first (the stronger identity), then by
// normalized name, matching the invariant in the data model (§3).
func (s *Store) findArtistForUpsert(ctx context.Context, a *Artist) (*Artist, error) {
	if a.ProviderID != "" {
		if found, err := s.GetArtistByProviderID(ctx, a.ProviderID); err == nil {
			return found, nil
		} else if err != ErrNotFound {
			return nil, err
		}
	}
	return s.GetArtistByNormalizedName(ctx, a.NormalizedName)
}

const artistColumns = `id, provider_id, name, normalized_name, genres, image_ref,
	popularity, followers, bio_summary, bio_text, created_at, updated_at, last_refreshed_at`

func (s *Store) scanArtist(row *sql.Row) (*Artist, error) {
	var a Artist
	var providerID, imageRef, bioSummary, bioText sql.NullString
	var lastRefreshed sql.NullTime

	err := row.Scan(&a.ID, &providerID, &a.Name, &a.NormalizedName, &a.Genres, &imageRef,
		&a.Popularity, &a.Followers, &bioSummary, &bioText, &a.CreatedAt, &a.UpdatedAt, &lastRefreshed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan artist: %w", err)
	}

	a.ProviderID = providerID.String
	a.ImageRef = imageRef.String
	a.BioSummary = bioSummary.String
	a.BioText = bioText.String
	if lastRefreshed.Valid {
		a.LastRefreshedAt = lastRefreshed.Time
	}
	return &a, nil
}

// GetArtistByID looks up an artist by its local id.
func (s *Store) GetArtistByID(ctx context.Context, id int64) (*Artist, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	return s.scanArtist(row)
}

// GetArtistByProviderID looks up an artist by its provider id.
func (s *Store) GetArtistByProviderID(ctx context.Context, providerID string) (*Artist, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE provider_id = ?`, providerID)
	return s.scanArtist(row)
}

// GetArtistByNormalizedName looks up an artist by exact normalized name.
func (s *Store) GetArtistByNormalizedName(ctx context.Context, normalizedName string) (*Artist, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE normalized_name = ?`, normalizedName)
	return s.scanArtist(row)
}

// ListStaleArtists returns artists whose last_refreshed_at is older than
// the cutoff (or unset), ordered by popularity for priority refresh,
// used by the freshness manager's bulk refresh loop.
func (s *Store) ListStaleArtists(ctx context.Context, cutoff time.Time, limit int) ([]*Artist, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists
		 WHERE last_refreshed_at IS NULL OR last_refreshed_at < ?
		 ORDER BY popularity DESC, id ASC
		 LIMIT ?`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list stale artists: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

// ListArtistsByGenre returns artists sharing at least one of the given
// genre tags, ordered by popularity descending, for the local-resolution
// "related local artists by shared genres" path (spec §4.9).
func (s *Store) ListArtistsByGenre(ctx context.Context, genres []string, excludeID int64, limit int) ([]*Artist, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists
		 WHERE id != ? AND list_has_any(genres, ?)
		 ORDER BY popularity DESC, id ASC
		 LIMIT ?`,
		excludeID, genres, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list artists by genre: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

// ListArtistsMissingGenres returns artists with an empty genre list,
// ordered by popularity descending, for the genre backfill loop (C8).
func (s *Store) ListArtistsMissingGenres(ctx context.Context, limit int) ([]*Artist, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists
		 WHERE genres IS NULL OR len(genres) = 0
		 ORDER BY popularity DESC, id ASC
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list artists missing genres: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

// ListArtistsByUpdatedAt returns artists ordered by updated_at ascending
// (nulls first) then popularity descending, for the library refresh
// loop's plain round-robin batch selection — unlike ListStaleArtists,
// this is not filtered by a staleness cutoff.
func (s *Store) ListArtistsByUpdatedAt(ctx context.Context, limit int) ([]*Artist, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists
		 ORDER BY updated_at ASC NULLS FIRST, popularity DESC
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list artists by updated_at: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

// ListAllArtists returns every artist's id/name, for the chart
// scraper/matcher's artist-name lookup map (C8). No pagination: melodex
// is a personal library, not a multi-tenant catalog.
func (s *Store) ListAllArtists(ctx context.Context) ([]*Artist, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+artistColumns+` FROM artists`)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list all artists: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

func scanArtistRows(rows *sql.Rows) ([]*Artist, error) {
	var out []*Artist
	for rows.Next() {
		var a Artist
		var providerID, imageRef, bioSummary, bioText sql.NullString
		var lastRefreshed sql.NullTime

		if err := rows.Scan(&a.ID, &providerID, &a.Name, &a.NormalizedName, &a.Genres, &imageRef,
			&a.Popularity, &a.Followers, &bioSummary, &bioText, &a.CreatedAt, &a.UpdatedAt, &lastRefreshed); err != nil {
			return nil, fmt.Errorf("entitystore: scan artist row: %w", err)
		}
		a.ProviderID = providerID.String
		a.ImageRef = imageRef.String
		a.BioSummary = bioSummary.String
		a.BioText = bioText.String
		if lastRefreshed.Valid {
			a.LastRefreshedAt = lastRefreshed.Time
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entitystore: iterate artist rows: %w", err)
	}
	return out, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
