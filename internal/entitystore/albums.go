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

const albumColumns = `id, provider_id, name, artist_id, release_date, total_tracks, label, image_ref, created_at, updated_at`

// UpsertAlbum inserts or updates an album, merging on provider id first
// then on (artist_id, name). Re-released albums sharing a provider id
// are last-write-wins, per the recorded Open Question decision.
func (s *Store) UpsertAlbum(ctx context.Context, al *Album) (*Album, error) {
	now := time.Now().UTC()
	if al.CreatedAt.IsZero() {
		al.CreatedAt = now
	}
	al.UpdatedAt = now

	existing, err := s.findAlbumForUpsert(ctx, al)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		al.ID = existing.ID
		al.CreatedAt = existing.CreatedAt
		return s.updateAlbum(ctx, al)
	}

	query := `INSERT INTO albums (
		provider_id, name, artist_id, release_date, total_tracks, label, image_ref, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	row := s.conn.QueryRowContext(ctx, query,
		nullableString(al.ProviderID), al.Name, al.ArtistID, nullableString(al.ReleaseDate),
		al.TotalTracks, nullableString(al.Label), nullableString(al.ImageRef), al.CreatedAt, al.UpdatedAt)
	if err := row.Scan(&al.ID); err != nil {
		if isUniqueConstraintError(err) {
			conflict, reReadErr := s.findAlbumForUpsert(ctx, al)
			if reReadErr != nil {
				return nil, fmt.Errorf("entitystore: upsert album conflict re-read: %w", reReadErr)
			}
			return conflict, ErrConflict
		}
		return nil, fmt.Errorf("entitystore: insert album: %w", err)
	}
	return al, nil
}

func (s *Store) updateAlbum(ctx context.Context, al *Album) (*Album, error) {
	query := `UPDATE albums SET
		provider_id = ?, name = ?, artist_id = ?, release_date = ?, total_tracks = ?, label = ?, image_ref = ?, updated_at = ?
	WHERE id = ?`
	_, err := s.conn.ExecContext(ctx, query,
		nullableString(al.ProviderID), al.Name, al.ArtistID, nullableString(al.ReleaseDate),
		al.TotalTracks, nullableString(al.Label), nullableString(al.ImageRef), al.UpdatedAt, al.ID)
	if err != nil {
		return nil, fmt.Errorf("entitystore: update album: %w", err)
	}
	return al, nil
}

func (s *Store) findAlbumForUpsert(ctx context.Context, al *Album) (*Album, error) {
	if al.ProviderID != "" {
		if found, err := s.GetAlbumByProviderID(ctx, al.ProviderID); err == nil {
			return found, nil
		} else if err != ErrNotFound {
			return nil, err
		}
	}
	row := s.conn.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE artist_id = ? AND name = ?`, al.ArtistID, al.Name)
	return s.scanAlbum(row)
}

func (s *Store) scanAlbum(row *sql.Row) (*Album, error) {
	var al Album
	var providerID, releaseDate, label, imageRef sql.NullString

	err := row.Scan(&al.ID, &providerID, &al.Name, &al.ArtistID, &releaseDate, &al.TotalTracks, &label, &imageRef, &al.CreatedAt, &al.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan album: %w", err)
	}
	al.ProviderID = providerID.String
	al.ReleaseDate = releaseDate.String
	al.Label = label.String
	al.ImageRef = imageRef.String
	return &al, nil
}

// GetAlbumByID looks up an album by local id.
func (s *Store) GetAlbumByID(ctx context.Context, id int64) (*Album, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	return s.scanAlbum(row)
}

// GetAlbumByProviderID looks up an album by provider id.
func (s *Store) GetAlbumByProviderID(ctx context.Context, providerID string) (*Album, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE provider_id = ?`, providerID)
	return s.scanAlbum(row)
}

// ListAlbumsByArtist returns an artist's albums ordered by release date descending.
func (s *Store) ListAlbumsByArtist(ctx context.Context, artistID int64) ([]*Album, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE artist_id = ? ORDER BY release_date DESC`, artistID)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list albums by artist: %w", err)
	}
	defer rows.Close()

	var out []*Album
	for rows.Next() {
		var al Album
		var providerID, releaseDate, label, imageRef sql.NullString
		if err := rows.Scan(&al.ID, &providerID, &al.Name, &al.ArtistID, &releaseDate, &al.TotalTracks, &label, &imageRef, &al.CreatedAt, &al.UpdatedAt); err != nil {
			return nil, fmt.Errorf("entitystore: scan album row: %w", err)
		}
		al.ProviderID = providerID.String
		al.ReleaseDate = releaseDate.String
		al.Label = label.String
		al.ImageRef = imageRef.String
		out = append(out, &al)
	}
	return out, rows.Err()
}
