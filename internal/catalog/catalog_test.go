// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/entitystore"
)

var testDBSemaphore = make(chan struct{}, 1)

func setupWriter(t *testing.T, opts ...Option) (*Writer, *entitystore.Store) {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := entitystore.Open(ctx, entitystore.Config{Path: ":memory:", MaxMemory: "512MB"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	w := New(store, zerolog.Nop(), opts...)
	return w, store
}

func TestSaveArtistRefreshesAliases(t *testing.T) {
	w, store := setupWriter(t)
	ctx := context.Background()

	saved, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:1", Name: "Rosalía"})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.Equal(t, "rosalia", saved.NormalizedName)

	matches, err := store.FindSimilarAliases(ctx, entitystore.EntityKindArtist, "rosalia", 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestSaveArtistIsIdempotent(t *testing.T) {
	w, _ := setupWriter(t)
	ctx := context.Background()

	first, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:2", Name: "Shakira", Popularity: 70})
	require.NoError(t, err)

	second, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:2", Name: "Shakira", Popularity: 80})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 80, second.Popularity)
}

func TestSaveAlbumLinksArtist(t *testing.T) {
	w, _ := setupWriter(t)
	ctx := context.Background()

	artist, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:3", Name: "Shakira"})
	require.NoError(t, err)

	album, err := w.SaveAlbum(ctx, &entitystore.Album{ProviderID: "sp:album:1", Name: "Fijación Oral", ArtistID: artist.ID})
	require.NoError(t, err)
	require.Equal(t, artist.ID, album.ArtistID)
}

func TestSaveTrackLinksArtistAndAlbum(t *testing.T) {
	w, _ := setupWriter(t)
	ctx := context.Background()

	artist, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:4", Name: "Shakira"})
	require.NoError(t, err)
	album, err := w.SaveAlbum(ctx, &entitystore.Album{ProviderID: "sp:album:2", Name: "Fijación Oral", ArtistID: artist.ID})
	require.NoError(t, err)

	track, err := w.SaveTrack(ctx, &entitystore.Track{
		ProviderID: "sp:track:1",
		Name:       "La Tortura",
		ArtistID:   artist.ID,
		AlbumID:    sql.NullInt64{Int64: album.ID, Valid: true},
	})
	require.NoError(t, err)
	require.Equal(t, artist.ID, track.ArtistID)
	require.True(t, track.AlbumID.Valid)
}

func TestSaveYouTubeLinkCollapsesToMissingWithoutVideoID(t *testing.T) {
	w, _ := setupWriter(t)
	ctx := context.Background()

	link, err := w.SaveYouTubeLink(ctx, &entitystore.YouTubeLink{
		TrackProviderID: "sp:track:5",
		Status:          entitystore.LinkStatusVideoNotFound,
		ErrorMessage:    "no hits",
	})
	require.NoError(t, err)
	require.Equal(t, entitystore.LinkStatusMissing, link.Status)
}

func TestSaveYouTubeLinkClearsErrorOnceVideoIDKnown(t *testing.T) {
	w, _ := setupWriter(t)
	ctx := context.Background()

	link, err := w.SaveYouTubeLink(ctx, &entitystore.YouTubeLink{
		TrackProviderID: "sp:track:6",
		VideoID:         "abc123",
		Status:          entitystore.LinkStatusError,
		ErrorMessage:    "transient failure",
	})
	require.NoError(t, err)
	require.Empty(t, link.ErrorMessage)
	require.Equal(t, entitystore.LinkStatusLinkFound, link.Status)
}

type stubFavoriteChecker struct{ favorited bool }

func (s stubFavoriteChecker) IsFavorited(context.Context, string, int64) (bool, error) {
	return s.favorited, nil
}

func TestDeleteArtistRefusedWhenFavorited(t *testing.T) {
	w, _ := setupWriter(t, WithFavoriteChecker(stubFavoriteChecker{favorited: true}))
	ctx := context.Background()

	artist, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:6", Name: "Test Artist"})
	require.NoError(t, err)

	err = w.DeleteArtist(ctx, artist.ID)
	require.ErrorIs(t, err, entitystore.ErrProtectedDelete)
}

func TestDeleteArtistSucceedsWhenNotFavorited(t *testing.T) {
	w, store := setupWriter(t)
	ctx := context.Background()

	artist, err := w.SaveArtist(ctx, &entitystore.Artist{ProviderID: "sp:artist:7", Name: "Test Artist 2"})
	require.NoError(t, err)

	require.NoError(t, w.DeleteArtist(ctx, artist.ID))

	_, err = store.GetArtistByID(ctx, artist.ID)
	require.ErrorIs(t, err, entitystore.ErrNotFound)
}
