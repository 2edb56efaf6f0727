// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package catalog

import (
	"context"
	"time"

	"github.com/melodex/core/internal/entitystore"
)

// SaveYouTubeLink upserts a track's YouTube link. Before delegating to
// the entity store it applies the C4-level status normalization named
// in the Catalog Writer contract: status in {error, video_not_found}
// with an empty video id collapses to missing, and error_message is
// cleared the moment a video id becomes available. The entity store's
// own UpsertYouTubeLink additionally advances missing/video_not_found/
// error to link_found once a video id is present (spec §9's recorded
// decision); the two rules compose without conflict.
func (w *Writer) SaveYouTubeLink(ctx context.Context, l *entitystore.YouTubeLink) (*entitystore.YouTubeLink, error) {
	start := time.Now()
	normalizeForSave(l)

	saved, err := w.store.UpsertYouTubeLink(ctx, l)
	w.timeWrite("save_youtube_link", start)
	return saved, err
}

func normalizeForSave(l *entitystore.YouTubeLink) {
	if l.VideoID == "" {
		switch l.Status {
		case entitystore.LinkStatusError, entitystore.LinkStatusVideoNotFound:
			l.Status = entitystore.LinkStatusMissing
		}
		return
	}
	l.ErrorMessage = ""
}
