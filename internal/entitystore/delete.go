// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"fmt"
)

// DeleteArtistCascade removes an artist and its albums, tracks, and
// aliases in a single transaction (spec §3's cascade rule). melodex has
// no separate favorites table in the Entity Store contract — favorite
// status lives on curated-list consumers outside C1 — so the "refused
// if referenced by a favorite" clause is enforced by the catalog writer
// (C4) before calling this method, not here.
func (s *Store) DeleteArtistCascade(ctx context.Context, artistID int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("entitystore: begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM aliases WHERE (entity_kind = ? AND entity_local_id = ?)
		   OR (entity_kind = ? AND entity_local_id IN (SELECT id FROM albums WHERE artist_id = ?))
		   OR (entity_kind = ? AND entity_local_id IN (SELECT id FROM tracks WHERE artist_id = ?))`,
		EntityKindArtist, artistID, EntityKindAlbum, artistID, EntityKindTrack, artistID); err != nil {
		return fmt.Errorf("entitystore: delete artist aliases: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE artist_id = ?`, artistID); err != nil {
		return fmt.Errorf("entitystore: delete artist tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE artist_id = ?`, artistID); err != nil {
		return fmt.Errorf("entitystore: delete artist albums: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = ?`, artistID); err != nil {
		return fmt.Errorf("entitystore: delete artist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("entitystore: commit artist deletion: %w", err)
	}
	return nil
}
