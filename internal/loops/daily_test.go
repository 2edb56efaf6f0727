// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
)

func TestDailyRefreshFillsMissingBioFromLastfm(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())

	artist, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "Fleet Foxes", NormalizedName: "fleet foxes"})
	require.NoError(t, err)

	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artist":{"name":"Fleet Foxes","stats":{"listeners":"1","playcount":"1"},
			"bio":{"summary":"An American indie folk band.","content":"full bio"},
			"tags":{"tag":[]}}}`))
	})

	loop := NewDailyRefresh(store, writer, expander.New(store, writer, nil, lf, zerolog.Nop()), lf)
	loop.fillMissingMetadata(ctx)

	updated, err := store.GetArtistByID(ctx, artist.ID)
	require.NoError(t, err)
	require.Equal(t, "An American indie folk band.", updated.BioSummary)
}

func TestDailyRefreshRunOnceSkipsSeedsWithoutProviderID(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())

	_, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "No Provider", NormalizedName: "no provider"})
	require.NoError(t, err)

	loop := NewDailyRefresh(store, writer, expander.New(store, writer, nil, nil, zerolog.Nop()), nil)
	loop.runOnce(ctx)
}
