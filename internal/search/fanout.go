// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"sync"

	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

const (
	externalTrackLimit  = 20
	lastfmTagFetchLimit = 30
)

// fanoutResult collects whatever partial data the external fanout
// managed to gather; a timed-out or failed leg simply leaves its
// field empty rather than failing the whole fanout (spec.md §4.9:
// "failures or timeouts downgrade silently").
type fanoutResult struct {
	tracks          []spotify.Track
	taggedArtists   []spotify.Artist
	similarArtists  []spotify.Artist
}

// runExternalFanout executes the three-legged external search in
// parallel: Spotify-shaped track search, Last.fm-shaped top-artists-by-
// tag enriched with Spotify, and similar-artists for the first enriched
// tagged artist. wantTracks/wantArtists let tracks_quick and
// artist_profile skip legs the spec says they don't need.
func (o *Orchestrator) runExternalFanout(ctx context.Context, q string, wantTracks, wantArtists bool) fanoutResult {
	var result fanoutResult
	var wg sync.WaitGroup

	if wantTracks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.tracks = o.fanoutTracks(ctx, q)
		}()
	}

	if wantArtists {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tagged := o.fanoutTaggedArtists(ctx, q)
			result.taggedArtists = tagged
			if len(tagged) > 0 {
				result.similarArtists = o.fanoutSimilarArtists(ctx, tagged[0].Name)
			}
		}()
	}

	wg.Wait()
	return result
}

func (o *Orchestrator) fanoutTracks(ctx context.Context, q string) []spotify.Track {
	cctx, cancel := context.WithTimeout(ctx, o.cfg.ExternalTrackTimeout)
	defer cancel()
	tracks, err := o.spotify.SearchTracks(cctx, q, externalTrackLimit)
	if err != nil {
		o.log.Debug().Err(err).Str("q", q).Msg("external track search failed")
		return nil
	}
	return tracks
}

// fanoutTaggedArtists retrieves top artists for q treated as a Last.fm
// tag, then enriches each with a Spotify artist search bounded by a
// semaphore, dropping results below the follower floor or off-genre by
// keyword hint. Grounded on the teacher's buffered-channel semaphore +
// sync.WaitGroup idiom (internal/newsletter/scheduler.checkAndExecute).
func (o *Orchestrator) fanoutTaggedArtists(ctx context.Context, tag string) []spotify.Artist {
	tagCtx, cancel := context.WithTimeout(ctx, o.cfg.ExternalTagTimeout)
	defer cancel()
	topArtists, err := o.lastfm.GetTopArtistsByTag(tagCtx, tag, lastfmTagFetchLimit, 1)
	if err != nil {
		o.log.Debug().Err(err).Str("tag", tag).Msg("top artists by tag failed")
		return nil
	}

	names := make([]string, 0, len(topArtists))
	for _, a := range topArtists {
		names = append(names, a.Name)
	}
	return o.enrichArtistNames(ctx, names, tag, o.cfg.MinFollowerFloor)
}

func (o *Orchestrator) fanoutSimilarArtists(ctx context.Context, seedArtist string) []spotify.Artist {
	simCtx, cancel := context.WithTimeout(ctx, o.cfg.ExternalSimilarTimeout)
	defer cancel()
	similar, err := o.lastfm.GetSimilarArtists(simCtx, seedArtist, 20)
	if err != nil {
		o.log.Debug().Err(err).Str("artist", seedArtist).Msg("similar artists lookup failed")
		return nil
	}

	names := make([]string, 0, len(similar))
	for _, a := range similar {
		names = append(names, a.Name)
	}
	return o.enrichArtistNames(ctx, names, "", o.cfg.SimilarFollowerFloor)
}

// enrichArtistNames resolves each name to a Spotify-shaped artist,
// bounded by a semaphore of ArtistEnrichConcurrent, then filters by
// follower floor and (when tag is non-empty) genre hint.
func (o *Orchestrator) enrichArtistNames(ctx context.Context, names []string, tag string, followerFloor int) []spotify.Artist {
	concurrency := o.cfg.ArtistEnrichConcurrent
	if concurrency <= 0 {
		concurrency = 15
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var out []spotify.Artist

	for _, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			artistCtx, cancel := context.WithTimeout(ctx, o.cfg.ExternalArtistTimeout)
			defer cancel()

			hits, err := o.spotify.SearchArtists(artistCtx, name, 1)
			if err != nil || len(hits) == 0 {
				return
			}
			candidate := hits[0]
			if int(candidate.Followers.Total) < followerFloor {
				return
			}
			if tag != "" && !matchesGenreHint(tag, candidate.Genres) {
				return
			}

			mu.Lock()
			out = append(out, candidate)
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return out
}

// lastfmArtistInfo looks up stats for a resolved Spotify artist name,
// used when normalizing an external artist into its {spotify, lastfm}
// card shape. Best-effort: an error just leaves Lastfm nil.
func (o *Orchestrator) lastfmArtistInfo(ctx context.Context, name string) *lastfm.ArtistInfo {
	infoCtx, cancel := context.WithTimeout(ctx, o.cfg.ExternalArtistTimeout)
	defer cancel()
	info, err := o.lastfm.GetArtistInfo(infoCtx, name)
	if err != nil {
		return nil
	}
	return info
}
