// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package catalog

import (
	"context"
	"time"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
)

// SaveAlbum upserts an album and refreshes its alias rows. Callers are
// expected to have already resolved ArtistID (save_album in the
// original saves the owning artist first if it doesn't exist yet;
// melodex's C2 provider clients resolve the artist before calling
// through to the catalog, so this layer doesn't reach back into a
// provider client itself).
func (w *Writer) SaveAlbum(ctx context.Context, al *entitystore.Album) (*entitystore.Album, error) {
	start := time.Now()

	saved, err := w.store.UpsertAlbum(ctx, al)
	if err == entitystore.ErrConflict {
		metrics.RecordEntityStoreConflictRetry(entitystore.EntityKindAlbum)
		saved, err = w.store.UpsertAlbum(ctx, mergeAlbum(saved, al))
	}
	w.timeWrite("save_album", start)
	if err != nil {
		return nil, err
	}

	if err := w.refreshAliases(ctx, entitystore.EntityKindAlbum, saved.ID, saved.Name); err != nil {
		w.log.Warn().Err(err).Int64("album_id", saved.ID).Msg("alias refresh failed")
	}
	return saved, nil
}

func mergeAlbum(existing, updates *entitystore.Album) *entitystore.Album {
	merged := *existing
	merged.Name = updates.Name
	merged.ReleaseDate = updates.ReleaseDate
	merged.TotalTracks = updates.TotalTracks
	merged.Label = updates.Label
	merged.ImageRef = updates.ImageRef
	if updates.ArtistID != 0 {
		merged.ArtistID = updates.ArtistID
	}
	if updates.ProviderID != "" {
		merged.ProviderID = updates.ProviderID
	}
	return &merged
}
