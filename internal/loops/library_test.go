// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/freshness"
)

func TestLibraryRefreshSkipsArtistsWithoutProviderID(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())

	_, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "Local Only", NormalizedName: "local only"})
	require.NoError(t, err)

	manager := freshness.New(store, writer, nil, nil, config.EntitiesConfig{ArtistMaxAge: 24 * time.Hour}, zerolog.Nop())
	loop := NewLibraryRefresh(store, manager, 30)

	loop.runOnce(ctx)
}

func TestLibraryRefreshBatchRespectsLimit(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "One", NormalizedName: "one"})
	require.NoError(t, err)
	_, err = store.UpsertArtist(ctx, &entitystore.Artist{Name: "Two", NormalizedName: "two"})
	require.NoError(t, err)

	batch, err := store.ListArtistsByUpdatedAt(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
}
