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

// SaveTrack upserts a track and refreshes its alias rows. The track
// writer additionally links to album and artist, per the Catalog
// Writer contract — ArtistID/AlbumID must already be set on t by the
// caller (the expander and freshness manager resolve these before
// calling through).
func (w *Writer) SaveTrack(ctx context.Context, t *entitystore.Track) (*entitystore.Track, error) {
	start := time.Now()

	saved, err := w.store.UpsertTrack(ctx, t)
	if err == entitystore.ErrConflict {
		metrics.RecordEntityStoreConflictRetry(entitystore.EntityKindTrack)
		saved, err = w.store.UpsertTrack(ctx, mergeTrack(saved, t))
	}
	w.timeWrite("save_track", start)
	if err != nil {
		return nil, err
	}

	if err := w.refreshAliases(ctx, entitystore.EntityKindTrack, saved.ID, saved.Name); err != nil {
		w.log.Warn().Err(err).Int64("track_id", saved.ID).Msg("alias refresh failed")
	}
	return saved, nil
}

func mergeTrack(existing, updates *entitystore.Track) *entitystore.Track {
	merged := *existing
	merged.Name = updates.Name
	merged.DurationMs = updates.DurationMs
	merged.Popularity = updates.Popularity
	merged.PreviewURL = updates.PreviewURL
	merged.ExternalURL = updates.ExternalURL
	if updates.AlbumID.Valid {
		merged.AlbumID = updates.AlbumID
	}
	if updates.ArtistID != 0 {
		merged.ArtistID = updates.ArtistID
	}
	if updates.ProviderID != "" {
		merged.ProviderID = updates.ProviderID
	}
	return &merged
}
