// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package expander implements the Library Expander (C6): given a seed
// artist's provider id, it persists the artist's full discography
// (every album in album/single/compilation, and every track on each)
// through the Catalog Writer, optionally recursing one level into
// similar artists. Concurrency is bounded to one in-flight expansion
// per provider id using golang.org/x/sync/singleflight in place of
// original_source/app/services/library_expansion.py's hand-rolled
// `_expansion_tasks` dict of asyncio.Task keyed by artist id.
//
// Grounded on library_expansion.py's save_artist_discography (album/
// track persistence loop) and save_artist_and_similars (fan-out to
// similar artists), and
// original_source/app/core/data_freshness.py's
// expand_user_library_from_full_discography for the similar-artist
// lookup-then-recurse shape.
package expander

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

// albumGroups is the fixed set of Spotify album-group types expanded
// for every artist, matching save_artist_discography's
// "album,single,compilation" constant.
var albumGroups = []string{"album", "single", "compilation"}

// Result summarizes one expansion run.
type Result struct {
	ArtistsProcessed int
	AlbumsSaved      int
	TracksSaved      int
}

// Expander is the Library Expander.
type Expander struct {
	store   *entitystore.Store
	catalog *catalog.Writer
	spotify *spotify.Client
	lastfm  *lastfm.Client
	sf      singleflight.Group
	log     zerolog.Logger
}

// New builds an Expander.
func New(store *entitystore.Store, writer *catalog.Writer, spotifyClient *spotify.Client, lastfmClient *lastfm.Client, log zerolog.Logger) *Expander {
	return &Expander{
		store:   store,
		catalog: writer,
		spotify: spotifyClient,
		lastfm:  lastfmClient,
		log:     log.With().Str("component", "expander").Logger(),
	}
}

// ExpandFromSeed fetches the seed artist's full discography (every
// album across album/single/compilation, fetch_all=true, and every
// track on each) and persists it through the catalog writer. Calls
// for the same provider id while one is already running collapse onto
// the in-flight call's result.
func (e *Expander) ExpandFromSeed(ctx context.Context, providerID string) (*Result, error) {
	v, err, _ := e.sf.Do(providerID, func() (any, error) {
		return e.expandArtist(ctx, providerID, 0)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// ExpandWithSimilar runs ExpandFromSeed for the seed artist, then
// enumerates up to k similar artists from the stats provider, skips
// ones already present locally, and recursively expands each
// (one level deep — similar artists are never themselves expanded
// with further similars, so the recursion cannot cycle). Each similar
// artist's track count is capped at tracksPerArtist.
func (e *Expander) ExpandWithSimilar(ctx context.Context, providerID, artistName string, k, tracksPerArtist int) (*Result, error) {
	seed, err := e.ExpandFromSeed(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return seed, nil
	}

	similar, err := e.lastfm.GetSimilarArtists(ctx, artistName, k)
	if err != nil {
		e.log.Warn().Err(err).Str("artist", artistName).Msg("could not get similar artists")
		return seed, nil
	}

	for i, s := range similar {
		if i >= k {
			break
		}
		matches, err := e.spotify.SearchArtists(ctx, s.Name, 1)
		if err != nil || len(matches) == 0 {
			e.log.Warn().Str("similar_artist", s.Name).Msg("could not resolve similar artist on spotify")
			continue
		}
		similarID := matches[0].ID
		if existing, err := e.store.GetArtistByProviderID(ctx, similarID); err == nil && existing != nil {
			continue
		}

		similarResult, err := e.sf.Do(similarID, func() (any, error) {
			return e.expandArtist(ctx, similarID, tracksPerArtist)
		})
		if err != nil {
			e.log.Warn().Err(err).Str("similar_artist", s.Name).Msg("similar-artist expansion failed")
			continue
		}
		r := similarResult.(*Result)
		seed.ArtistsProcessed += r.ArtistsProcessed
		seed.AlbumsSaved += r.AlbumsSaved
		seed.TracksSaved += r.TracksSaved
	}

	return seed, nil
}

// expandArtist saves the artist, then every album and track in its
// discography. trackCap of 0 means unlimited.
func (e *Expander) expandArtist(ctx context.Context, providerID string, trackCap int) (*Result, error) {
	result := &Result{}

	artistData, err := e.spotify.GetArtist(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("expander: fetch artist %s: %w", providerID, err)
	}

	artist, err := e.catalog.SaveArtist(ctx, &entitystore.Artist{
		ProviderID: artistData.ID,
		Name:       artistData.Name,
		Genres:     artistData.Genres,
		Popularity: artistData.Popularity,
		Followers:  artistData.Followers.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("expander: save artist %s: %w", providerID, err)
	}
	result.ArtistsProcessed = 1

	albums, err := e.spotify.GetArtistAlbums(ctx, providerID, albumGroups, true)
	if err != nil {
		e.log.Warn().Err(err).Str("artist", artist.Name).Msg("could not list albums")
		return result, nil
	}

	for _, albumData := range albums {
		if trackCap > 0 && result.TracksSaved >= trackCap {
			break
		}

		savedAlbum, err := e.catalog.SaveAlbum(ctx, &entitystore.Album{
			ProviderID:  albumData.ID,
			Name:        albumData.Name,
			ArtistID:    artist.ID,
			ReleaseDate: albumData.ReleaseDate,
			TotalTracks: albumData.TotalTracks,
			Label:       albumData.Label,
		})
		if err != nil {
			e.log.Warn().Err(err).Str("album", albumData.Name).Msg("could not save album")
			continue
		}
		result.AlbumsSaved++
		metrics.RecordEntityRefreshed(entitystore.EntityKindAlbum)

		tracks, err := e.spotify.GetAlbumTracks(ctx, albumData.ID, true)
		if err != nil {
			e.log.Warn().Err(err).Str("album", albumData.Name).Msg("could not list tracks")
			continue
		}
		for _, trackData := range tracks {
			if trackCap > 0 && result.TracksSaved >= trackCap {
				break
			}
			if _, err := e.catalog.SaveTrack(ctx, &entitystore.Track{
				ProviderID: trackData.ID,
				Name:       trackData.Name,
				ArtistID:   artist.ID,
				AlbumID:    nullAlbumID(savedAlbum.ID),
				DurationMs: trackData.DurationMs,
				Popularity: trackData.Popularity,
				PreviewURL: trackData.PreviewURL,
			}); err != nil {
				e.log.Warn().Err(err).Str("track", trackData.Name).Msg("could not save track")
				continue
			}
			result.TracksSaved++
			metrics.RecordEntityRefreshed(entitystore.EntityKindTrack)
		}
	}

	e.log.Info().
		Str("artist", artist.Name).
		Int("albums", result.AlbumsSaved).
		Int("tracks", result.TracksSaved).
		Msg("expansion complete")
	return result, nil
}

func nullAlbumID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
