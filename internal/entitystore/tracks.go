// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const trackColumns = `id, provider_id, name, artist_id, album_id, duration_ms, popularity,
	preview_url, external_url, download_path, created_at, updated_at`

// UpsertTrack inserts or updates a track, merging on provider id first,
// then on (artist_id, name). If album is set, callers are expected to
// have already validated album.artist == track.artist; violations are
// logged by the catalog writer and not rewritten here (spec §3).
func (s *Store) UpsertTrack(ctx context.Context, t *Track) (*Track, error) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	existing, err := s.findTrackForUpsert(ctx, t)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		return s.updateTrack(ctx, t)
	}

	query := `INSERT INTO tracks (
		provider_id, name, artist_id, album_id, duration_ms, popularity,
		preview_url, external_url, download_path, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	row := s.conn.QueryRowContext(ctx, query,
		nullableString(t.ProviderID), t.Name, t.ArtistID, t.AlbumID, t.DurationMs, t.Popularity,
		nullableString(t.PreviewURL), nullableString(t.ExternalURL), nullableString(t.DownloadPath),
		t.CreatedAt, t.UpdatedAt)
	if err := row.Scan(&t.ID); err != nil {
		if isUniqueConstraintError(err) {
			conflict, reReadErr := s.findTrackForUpsert(ctx, t)
			if reReadErr != nil {
				return nil, fmt.Errorf("entitystore: upsert track conflict re-read: %w", reReadErr)
			}
			return conflict, ErrConflict
		}
		return nil, fmt.Errorf("entitystore: insert track: %w", err)
	}
	return t, nil
}

func (s *Store) updateTrack(ctx context.Context, t *Track) (*Track, error) {
	query := `UPDATE tracks SET
		provider_id = ?, name = ?, artist_id = ?, album_id = ?, duration_ms = ?, popularity = ?,
		preview_url = ?, external_url = ?, download_path = ?, updated_at = ?
	WHERE id = ?`
	_, err := s.conn.ExecContext(ctx, query,
		nullableString(t.ProviderID), t.Name, t.ArtistID, t.AlbumID, t.DurationMs, t.Popularity,
		nullableString(t.PreviewURL), nullableString(t.ExternalURL), nullableString(t.DownloadPath),
		t.UpdatedAt, t.ID)
	if err != nil {
		return nil, fmt.Errorf("entitystore: update track: %w", err)
	}
	return t, nil
}

func (s *Store) findTrackForUpsert(ctx context.Context, t *Track) (*Track, error) {
	if t.ProviderID != "" {
		if found, err := s.GetTrackByProviderID(ctx, t.ProviderID); err == nil {
			return found, nil
		} else if err != ErrNotFound {
			return nil, err
		}
	}
	row := s.conn.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE artist_id = ? AND name = ?`, t.ArtistID, t.Name)
	return s.scanTrack(row)
}

func (s *Store) scanTrack(row *sql.Row) (*Track, error) {
	var t Track
	var providerID, previewURL, externalURL, downloadPath sql.NullString

	err := row.Scan(&t.ID, &providerID, &t.Name, &t.ArtistID, &t.AlbumID, &t.DurationMs, &t.Popularity,
		&previewURL, &externalURL, &downloadPath, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan track: %w", err)
	}
	t.ProviderID = providerID.String
	t.PreviewURL = previewURL.String
	t.ExternalURL = externalURL.String
	t.DownloadPath = downloadPath.String
	return &t, nil
}

// GetTrackByID looks up a track by local id.
func (s *Store) GetTrackByID(ctx context.Context, id int64) (*Track, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	return s.scanTrack(row)
}

// GetTrackByProviderID looks up a track by provider id.
func (s *Store) GetTrackByProviderID(ctx context.Context, providerID string) (*Track, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE provider_id = ?`, providerID)
	return s.scanTrack(row)
}

// ListTracksByArtist returns an artist's tracks ordered by popularity descending.
func (s *Store) ListTracksByArtist(ctx context.Context, artistID int64, limit int) ([]*Track, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE artist_id = ? ORDER BY popularity DESC, id ASC LIMIT ?`,
		artistID, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks by artist: %w", err)
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// SearchTracksByTitle returns candidate tracks whose name contains
// firstToken, case-insensitively, for the search orchestrator's local
// track resolution (C9): tracks carry no normalized_name/alias index
// of their own (unlike artists), so the orchestrator narrows on this
// single anchor token and then applies its own all-tokens-present
// confidence check against the full query.
func (s *Store) SearchTracksByTitle(ctx context.Context, firstToken string, limit int) ([]*Track, error) {
	if firstToken == "" {
		return nil, nil
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE lower(name) LIKE ? ORDER BY popularity DESC, id ASC LIMIT ?`,
		"%"+strings.ToLower(firstToken)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: search tracks by title: %w", err)
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// ListTracksByAlbum returns an album's tracks.
func (s *Store) ListTracksByAlbum(ctx context.Context, albumID int64) ([]*Track, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE album_id = ? ORDER BY id ASC`, albumID)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks by album: %w", err)
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// ListStaleTracks returns tracks never refreshed or refreshed before the
// cutoff, used by the freshness manager's track bulk refresh path. Track
// freshness has no dedicated timestamp column; callers join via
// updated_at as a proxy, matching how re-fetched tracks are written.
func (s *Store) ListStaleTracks(ctx context.Context, cutoff time.Time, limit int) ([]*Track, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE updated_at < ? ORDER BY popularity DESC, id ASC LIMIT ?`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list stale tracks: %w", err)
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

func scanTrackRows(rows *sql.Rows) ([]*Track, error) {
	var out []*Track
	for rows.Next() {
		var t Track
		var providerID, previewURL, externalURL, downloadPath sql.NullString
		if err := rows.Scan(&t.ID, &providerID, &t.Name, &t.ArtistID, &t.AlbumID, &t.DurationMs, &t.Popularity,
			&previewURL, &externalURL, &downloadPath, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("entitystore: scan track row: %w", err)
		}
		t.ProviderID = providerID.String
		t.PreviewURL = previewURL.String
		t.ExternalURL = externalURL.String
		t.DownloadPath = downloadPath.String
		out = append(out, &t)
	}
	return out, rows.Err()
}
