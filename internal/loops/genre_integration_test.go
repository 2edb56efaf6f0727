// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/providers/lastfm"
)

func newTestLastfmClient(t *testing.T, handler http.HandlerFunc) *lastfm.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return lastfm.New(config.LastfmConfig{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestGenreBackfillDerivesGenresFromTrackTags(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())

	artist, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "Adele", NormalizedName: "adele"})
	require.NoError(t, err)
	_, err = store.UpsertTrack(ctx, &entitystore.Track{Name: "Hello", ArtistID: artist.ID})
	require.NoError(t, err)

	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"track":{"listeners":"1","playcount":"1","toptags":{"tag":[
			{"name":"soul"},{"name":"pop"},{"name":"seen live"},{"name":"2015"}
		]}}}`))
	})

	loop := NewGenreBackfill(store, writer, lf, config.EntitiesConfig{
		GenreBackfillBatch:   10,
		GenreBackfillTopTags: 6,
	})
	loop.runOnce(ctx)

	updated, err := store.GetArtistByID(ctx, artist.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"soul", "pop"}, updated.Genres)
}

func TestGenreBackfillFallsBackToArtistTagsWhenNoTracks(t *testing.T) {
	store := setupChartTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())

	artist, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "Khruangbin", NormalizedName: "khruangbin"})
	require.NoError(t, err)

	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artist":{"name":"Khruangbin","stats":{"listeners":"1","playcount":"1"},
			"bio":{"summary":"","content":""},
			"tags":{"tag":[{"name":"psychedelic"},{"name":"funk"}]}}}`))
	})

	loop := NewGenreBackfill(store, writer, lf, config.EntitiesConfig{
		GenreBackfillBatch:   10,
		GenreBackfillTopTags: 6,
	})
	loop.runOnce(ctx)

	updated, err := store.GetArtistByID(ctx, artist.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"psychedelic", "funk"}, updated.Genres)
}
