// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package catalog

import (
	"context"

	"github.com/melodex/core/internal/entitystore"
)

// DeleteArtist cascades the deletion of an artist and its albums,
// tracks, and aliases, refusing with entitystore.ErrProtectedDelete
// when a favorite references the artist. entitystore.DeleteArtistCascade
// has no Favorite table to check against, so the check lives here,
// against whatever FavoriteChecker the Writer was configured with.
func (w *Writer) DeleteArtist(ctx context.Context, artistID int64) error {
	favorited, err := w.favorites.IsFavorited(ctx, entitystore.EntityKindArtist, artistID)
	if err != nil {
		return err
	}
	if favorited {
		return entitystore.ErrProtectedDelete
	}
	return w.store.DeleteArtistCascade(ctx, artistID)
}
