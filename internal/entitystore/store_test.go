// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testDBSemaphore serializes DuckDB connection creation across tests;
// concurrent CGO-backed connections have been observed to hang under
// CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{Path: ":memory:", MaxMemory: "512MB"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := setupTestStore(t)
	require.NotNil(t, s.Conn())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUpsertArtistInsertThenUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := &Artist{
		ProviderID:     "sp:artist:1",
		Name:           "Café Tacvba",
		NormalizedName: "cafe tacvba",
		Genres:         []string{"rock", "latin"},
		Popularity:     70,
		Followers:      900000,
	}
	created, err := s.UpsertArtist(ctx, a)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	created.Popularity = 75
	created.Followers = 950000
	updated, err := s.UpsertArtist(ctx, created)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 75, updated.Popularity)

	fetched, err := s.GetArtistByProviderID(ctx, "sp:artist:1")
	require.NoError(t, err)
	require.Equal(t, int64(950000), fetched.Followers)
}

func TestGetArtistByIDNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetArtistByID(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertAlbumAndTrackChain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist, err := s.UpsertArtist(ctx, &Artist{Name: "Shakira", NormalizedName: "shakira"})
	require.NoError(t, err)

	album, err := s.UpsertAlbum(ctx, &Album{
		ProviderID:  "sp:album:1",
		Name:        "Fijación Oral",
		ArtistID:    artist.ID,
		TotalTracks: 13,
	})
	require.NoError(t, err)
	require.NotZero(t, album.ID)

	track, err := s.UpsertTrack(ctx, &Track{
		ProviderID: "sp:track:1",
		Name:       "La Tortura",
		ArtistID:   artist.ID,
		DurationMs: 222000,
	})
	require.NoError(t, err)
	require.NotZero(t, track.ID)

	tracks, err := s.ListTracksByArtist(ctx, artist.ID, 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "La Tortura", tracks[0].Name)
}

func TestEnsureEntityAliasesSkipsDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist, err := s.UpsertArtist(ctx, &Artist{Name: "Rosalía", NormalizedName: "rosalia"})
	require.NoError(t, err)

	err = s.EnsureEntityAliases(ctx, EntityKindArtist, artist.ID, []Alias{
		{Raw: "Rosalía", Normalized: "rosalia", Source: "normalized"},
		{Raw: "rosalia", Normalized: "rosalia", Source: "duplicate"},
		{Raw: "rosala", Normalized: "rosala", Source: "vowel_stripped"},
	})
	require.NoError(t, err)

	matches, err := s.FindSimilarAliases(ctx, EntityKindArtist, "rosalia", 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestUpsertYouTubeLinkNormalizesStatusOnVideoDiscovery(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertYouTubeLink(ctx, &YouTubeLink{
		TrackProviderID: "sp:track:2",
		Status:          LinkStatusVideoNotFound,
	})
	require.NoError(t, err)

	_, err = s.UpsertYouTubeLink(ctx, &YouTubeLink{
		TrackProviderID: "sp:track:2",
		VideoID:         "abc123",
		Status:          LinkStatusVideoNotFound,
	})
	require.NoError(t, err)

	link, err := s.GetYouTubeLink(ctx, "sp:track:2")
	require.NoError(t, err)
	require.Equal(t, LinkStatusLinkFound, link.Status)
}

func TestGetYouTubeLinkCompletedWhenDownloadPathPresent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertYouTubeLink(ctx, &YouTubeLink{
		TrackProviderID: "sp:track:3",
		VideoID:         "xyz789",
		DownloadPath:    "/data/melodex/tracks/xyz789.m4a",
		Status:          LinkStatusLinkFound,
	})
	require.NoError(t, err)

	link, err := s.GetYouTubeLink(ctx, "sp:track:3")
	require.NoError(t, err)
	require.Equal(t, LinkStatusCompleted, link.Status)
}

func TestChartEntryInsertIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := ChartEntryRaw{
		Source:    "billboard",
		Chart:     "hot-100",
		ChartDate: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		Rank:      1,
		Title:     "Example Song",
		Artist:    "Example Artist",
	}

	n1, err := s.InsertChartEntries(ctx, []ChartEntryRaw{entry})
	require.NoError(t, err)
	require.Equal(t, 1, n1)

	n2, err := s.InsertChartEntries(ctx, []ChartEntryRaw{entry})
	require.NoError(t, err)
	require.Equal(t, 0, n2)
}

func TestChartScanStateRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st, err := s.GetChartScanState(ctx, "billboard", "hot-100")
	require.NoError(t, err)
	require.False(t, st.BackfillComplete)

	st.LastScannedDate = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	st.BackfillComplete = true
	require.NoError(t, s.UpsertChartScanState(ctx, st))

	fetched, err := s.GetChartScanState(ctx, "billboard", "hot-100")
	require.NoError(t, err)
	require.True(t, fetched.BackfillComplete)
}

func TestDeleteArtistCascade(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist, err := s.UpsertArtist(ctx, &Artist{Name: "Test Artist", NormalizedName: "test artist"})
	require.NoError(t, err)

	_, err = s.UpsertTrack(ctx, &Track{Name: "Test Track", ArtistID: artist.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteArtistCascade(ctx, artist.ID))

	_, err = s.GetArtistByID(ctx, artist.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchCacheEntryRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := &SearchCacheEntry{CacheKey: "track:la tortura:shakira", Payload: []byte(`{"hit":true}`)}
	require.NoError(t, s.PutSearchCacheEntry(ctx, entry))

	fetched, err := s.GetSearchCacheEntry(ctx, "track:la tortura:shakira")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"hit":true}`), fetched.Payload)
}
