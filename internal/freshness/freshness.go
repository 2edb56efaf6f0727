// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package freshness implements the Freshness Manager (C5): staleness
// checks per entity kind, single-artist refresh against the metadata
// and stats providers, new-content detection, and a paced bulk-refresh
// sweep. Grounded on
// original_source/app/core/data_freshness.py's DataFreshnessManager
// (should_refresh_artist/track/album, refresh_artist_data,
// check_for_new_artist_content, bulk_refresh_stale_artists).
package freshness

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

// Manager is the Freshness Manager.
type Manager struct {
	store   *entitystore.Store
	catalog *catalog.Writer
	spotify *spotify.Client
	lastfm  *lastfm.Client
	cfg     config.EntitiesConfig
	log     zerolog.Logger
}

// New builds a Manager.
func New(store *entitystore.Store, writer *catalog.Writer, spotifyClient *spotify.Client, lastfmClient *lastfm.Client, cfg config.EntitiesConfig, log zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		catalog: writer,
		spotify: spotifyClient,
		lastfm:  lastfmClient,
		cfg:     cfg,
		log:     log.With().Str("component", "freshness").Logger(),
	}
}

// ShouldRefreshArtist reports whether an artist's provider-backed data
// needs refreshing: no last-refresh timestamp, or older than the
// configured artist max age.
func (m *Manager) ShouldRefreshArtist(a *entitystore.Artist) bool {
	return isStale(a.LastRefreshedAt, m.cfg.ArtistMaxAge)
}

// ShouldRefreshAlbum reports whether an album's data needs refreshing.
func (m *Manager) ShouldRefreshAlbum(al *entitystore.Album) bool {
	return isStale(al.UpdatedAt, m.cfg.AlbumMaxAge)
}

// ShouldRefreshTrack reports whether a track's data needs refreshing.
func (m *Manager) ShouldRefreshTrack(t *entitystore.Track) bool {
	return isStale(t.UpdatedAt, m.cfg.TrackMaxAge)
}

func isStale(last time.Time, maxAge time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return time.Since(last) > maxAge
}

// RefreshArtistData fetches fresh artist data from the metadata
// provider, saves it through the catalog writer, then best-effort
// updates the bio from the stats provider. Returns true if the artist
// was updated.
func (m *Manager) RefreshArtistData(ctx context.Context, providerID string) (bool, error) {
	artistData, err := m.spotify.GetArtist(ctx, providerID)
	if err != nil {
		m.log.Warn().Err(err).Str("provider_id", providerID).Msg("could not fetch artist data")
		return false, nil
	}

	now := time.Now().UTC()
	saved, err := m.catalog.SaveArtist(ctx, fromProviderArtist(artistData, now))
	if err != nil {
		return false, err
	}
	m.log.Info().Str("artist", saved.Name).Msg("artist data updated")
	metrics.RecordEntityRefreshed(entitystore.EntityKindArtist)

	if m.lastfm != nil {
		bio, err := m.lastfm.GetArtistInfo(ctx, saved.Name)
		if err != nil {
			m.log.Warn().Err(err).Str("artist", saved.Name).Msg("could not update bio")
		} else if bio.Summary != "" || bio.Content != "" {
			saved.BioSummary = bio.Summary
			saved.BioText = bio.Content
			if _, err := m.catalog.SaveArtist(ctx, saved); err != nil {
				m.log.Warn().Err(err).Str("artist", saved.Name).Msg("could not persist bio")
			}
		}
	}

	return true, nil
}

// NewContentCounts reports how much unseen content was discovered.
type NewContentCounts struct {
	NewAlbums int
	NewTracks int
}

// CheckForNewArtistContent lists every album for the artist on the
// metadata provider; unseen albums (and their unseen tracks) are
// persisted through the catalog writer.
func (m *Manager) CheckForNewArtistContent(ctx context.Context, artistLocalID int64, providerID string) (NewContentCounts, error) {
	var counts NewContentCounts

	albums, err := m.spotify.GetArtistAlbums(ctx, providerID, []string{"album", "single", "compilation"}, true)
	if err != nil {
		m.log.Warn().Err(err).Str("provider_id", providerID).Msg("could not list albums")
		return counts, nil
	}

	for _, albumData := range albums {
		if existing, err := m.store.GetAlbumByProviderID(ctx, albumData.ID); err == nil && existing != nil {
			continue
		}

		saved, err := m.catalog.SaveAlbum(ctx, fromProviderAlbum(albumData, artistLocalID))
		if err != nil {
			m.log.Warn().Err(err).Str("album", albumData.Name).Msg("could not save new album")
			continue
		}
		counts.NewAlbums++
		metrics.RecordEntityRefreshed(entitystore.EntityKindAlbum)

		tracks, err := m.spotify.GetAlbumTracks(ctx, albumData.ID, true)
		if err != nil {
			m.log.Warn().Err(err).Str("album", albumData.Name).Msg("could not list tracks")
			continue
		}
		for _, trackData := range tracks {
			if existing, err := m.store.GetTrackByProviderID(ctx, trackData.ID); err == nil && existing != nil {
				continue
			}
			if _, err := m.catalog.SaveTrack(ctx, fromProviderTrack(trackData, artistLocalID, saved.ID)); err != nil {
				m.log.Warn().Err(err).Str("track", trackData.Name).Msg("could not save new track")
				continue
			}
			counts.NewTracks++
			metrics.RecordEntityRefreshed(entitystore.EntityKindTrack)
		}
	}

	return counts, nil
}

// BulkRefreshResult summarizes a bulk-refresh sweep.
type BulkRefreshResult struct {
	ArtistsRefreshed int
	NewAlbums        int
	NewTracks        int
}

// BulkRefreshStaleArtists selects up to max artists whose refresh data
// is stalest (entitystore orders by popularity desc within the stale
// set), refreshing each and checking for new content, pacing requests
// by a small sleep between artists.
func (m *Manager) BulkRefreshStaleArtists(ctx context.Context, max int) (BulkRefreshResult, error) {
	var result BulkRefreshResult

	cutoff := time.Now().UTC().Add(-m.cfg.ArtistMaxAge)
	stale, err := m.store.ListStaleArtists(ctx, cutoff, max)
	if err != nil {
		return result, err
	}
	m.log.Info().Int("count", len(stale)).Msg("bulk refresh: found stale artists")

	pacing := m.cfg.BulkRefreshPacing
	if pacing <= 0 {
		pacing = 500 * time.Millisecond
	}

	for i, a := range stale {
		if a.ProviderID == "" {
			continue
		}
		updated, err := m.RefreshArtistData(ctx, a.ProviderID)
		if err != nil {
			m.log.Warn().Err(err).Str("artist", a.Name).Msg("bulk refresh failed")
			continue
		}
		if updated {
			counts, _ := m.CheckForNewArtistContent(ctx, a.ID, a.ProviderID)
			result.NewAlbums += counts.NewAlbums
			result.NewTracks += counts.NewTracks
			result.ArtistsRefreshed++
		}

		if i < len(stale)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(pacing):
			}
		}
	}

	m.log.Info().
		Int("artists_refreshed", result.ArtistsRefreshed).
		Int("new_albums", result.NewAlbums).
		Int("new_tracks", result.NewTracks).
		Msg("bulk refresh complete")
	return result, nil
}

func fromProviderArtist(a *spotify.Artist, refreshedAt time.Time) *entitystore.Artist {
	var imageRef string
	if len(a.Images) > 0 {
		imageRef = a.Images[0].URL
	}
	return &entitystore.Artist{
		ProviderID:      a.ID,
		Name:            a.Name,
		Genres:          a.Genres,
		ImageRef:        imageRef,
		Popularity:      a.Popularity,
		Followers:       a.Followers.Total,
		LastRefreshedAt: refreshedAt,
	}
}

func fromProviderAlbum(a spotify.Album, artistID int64) *entitystore.Album {
	var imageRef string
	if len(a.Images) > 0 {
		imageRef = a.Images[0].URL
	}
	return &entitystore.Album{
		ProviderID:  a.ID,
		Name:        a.Name,
		ArtistID:    artistID,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
		Label:       a.Label,
		ImageRef:    imageRef,
	}
}

func fromProviderTrack(t spotify.Track, artistID, albumID int64) *entitystore.Track {
	return &entitystore.Track{
		ProviderID:  t.ID,
		Name:        t.Name,
		ArtistID:    artistID,
		AlbumID:     sql.NullInt64{Int64: albumID, Valid: albumID != 0},
		DurationMs:  t.DurationMs,
		Popularity:  t.Popularity,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURL.Spotify,
	}
}
