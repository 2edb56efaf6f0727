// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package freshness

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/providers/spotify"
)

func testManager() *Manager {
	cfg := config.EntitiesConfig{
		ArtistMaxAge: 24 * time.Hour,
		AlbumMaxAge:  168 * time.Hour,
		TrackMaxAge:  168 * time.Hour,
	}
	return New(nil, nil, nil, nil, cfg, zerolog.Nop())
}

func TestShouldRefreshArtistLegacyData(t *testing.T) {
	m := testManager()
	require.True(t, m.ShouldRefreshArtist(&entitystore.Artist{}))
}

func TestShouldRefreshArtistStale(t *testing.T) {
	m := testManager()
	stale := &entitystore.Artist{LastRefreshedAt: time.Now().Add(-48 * time.Hour)}
	require.True(t, m.ShouldRefreshArtist(stale))
}

func TestShouldRefreshArtistFresh(t *testing.T) {
	m := testManager()
	fresh := &entitystore.Artist{LastRefreshedAt: time.Now().Add(-1 * time.Hour)}
	require.False(t, m.ShouldRefreshArtist(fresh))
}

func TestShouldRefreshAlbumAndTrack(t *testing.T) {
	m := testManager()
	require.True(t, m.ShouldRefreshAlbum(&entitystore.Album{}))
	require.True(t, m.ShouldRefreshTrack(&entitystore.Track{}))

	fresh := time.Now().Add(-time.Hour)
	require.False(t, m.ShouldRefreshAlbum(&entitystore.Album{UpdatedAt: fresh}))
	require.False(t, m.ShouldRefreshTrack(&entitystore.Track{UpdatedAt: fresh}))
}

func TestFromProviderArtistMapsImageAndFollowers(t *testing.T) {
	src := &spotify.Artist{
		ID:         "sp1",
		Name:       "Shakira",
		Genres:     []string{"latin pop"},
		Popularity: 80,
		Images:     []spotify.Image{{URL: "https://img/1.jpg"}},
	}
	src.Followers.Total = 12345

	now := time.Now()
	out := fromProviderArtist(src, now)
	require.Equal(t, "sp1", out.ProviderID)
	require.Equal(t, "https://img/1.jpg", out.ImageRef)
	require.Equal(t, int64(12345), out.Followers)
	require.Equal(t, now, out.LastRefreshedAt)
}

func TestFromProviderTrackSetsAlbumIDWhenNonZero(t *testing.T) {
	src := spotify.Track{ID: "t1", Name: "La Tortura", DurationMs: 200000}
	out := fromProviderTrack(src, 1, 2)
	require.True(t, out.AlbumID.Valid)
	require.Equal(t, int64(2), out.AlbumID.Int64)
}
