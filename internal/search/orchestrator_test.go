// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/entitystore"
)

func TestOrchestratedSearchReturnsLocalHitWithoutExternalCall(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	writer := catalog.New(store, zerolog.Nop())
	_, err := writer.SaveArtist(ctx, &entitystore.Artist{Name: "Radiohead"})
	require.NoError(t, err)

	called := false
	sp := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"tracks":{"items":[]},"artists":{"items":[]}}`))
	})

	o := testOrchestrator(t, store, sp, nil)
	resp, err := o.OrchestratedSearch(ctx, "radiohead", 1, 10, "")
	require.NoError(t, err)
	require.Equal(t, "local", resp.Source)
	require.NotEmpty(t, resp.Artists)
	require.False(t, called, "external provider should not be hit on a confident local match")
}

func TestOrchestratedSearchFallsBackToExternalFanout(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sp := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("type") {
		case "track":
			w.Write([]byte(`{"tracks":{"items":[{"id":"t1","name":"Some Song","artists":[{"id":"a1","name":"Some Artist"}]}]}}`))
		case "artist":
			w.Write([]byte(`{"artists":{"items":[{"id":"a1","name":"Some Artist","popularity":70,"followers":{"total":500000}}]}}`))
		default:
			w.Write([]byte(`{}`))
		}
	})
	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "tag.getTopArtists":
			w.Write([]byte(`{"topartists":{"artist":[{"name":"Some Artist"}]}}`))
		case "artist.getSimilar":
			w.Write([]byte(`{"similarartists":{"artist":[]}}`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	o := testOrchestrator(t, store, sp, lf)
	resp, err := o.OrchestratedSearch(ctx, "some nonexistent query", 1, 10, "")
	require.NoError(t, err)
	require.Equal(t, "external", resp.Source)
	require.NotEmpty(t, resp.Tracks)
}

func TestOrchestratedSearchHitsInProcessCacheOnSecondCall(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	calls := 0

	sp := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"tracks":{"items":[]},"artists":{"items":[]}}`))
	})
	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topartists":{"artist":[]},"similarartists":{"artist":[]}}`))
	})

	o := testOrchestrator(t, store, sp, lf)
	_, err := o.OrchestratedSearch(ctx, "fresh query", 1, 10, "")
	require.NoError(t, err)
	firstCalls := calls

	_, err = o.OrchestratedSearch(ctx, "fresh query", 1, 10, "")
	require.NoError(t, err)
	require.Equal(t, firstCalls, calls, "second identical call should be served from cache")
}

func TestTracksQuickReturnsAfterLocalHit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	artist, err := store.UpsertArtist(ctx, &entitystore.Artist{Name: "Adele", NormalizedName: "adele"})
	require.NoError(t, err)
	_, err = store.UpsertTrack(ctx, &entitystore.Track{Name: "Hello", ArtistID: artist.ID})
	require.NoError(t, err)

	called := false
	sp := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"tracks":{"items":[]}}`))
	})

	o := testOrchestrator(t, store, sp, nil)
	resp, err := o.TracksQuick(ctx, "hello", 10)
	require.NoError(t, err)
	require.Equal(t, "local", resp.Source)
	require.False(t, called)
}

func TestArtistProfileFallsBackToExternalWhenNoLocalMatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sp := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artists":{"items":[{"id":"a1","name":"External Artist","popularity":50,"followers":{"total":100}}]}}`))
	})
	lf := newTestLastfmClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "artist.getInfo":
			w.Write([]byte(`{"artist":{"name":"External Artist","stats":{"listeners":"10","playcount":"20"}}}`))
		case "artist.getSimilar":
			w.Write([]byte(`{"similarartists":{"artist":[]}}`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	o := testOrchestrator(t, store, sp, lf)
	resp, err := o.ArtistProfile(ctx, "external artist")
	require.NoError(t, err)
	require.Equal(t, "external", resp.Source)
	require.NotNil(t, resp.Main)
	require.Equal(t, "External Artist", resp.Main.Name)
}
