// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/lastfm"
)

// noiseTagSet filters out tags that describe a listener's relationship
// to a track rather than its genre, mirroring genre_backfill.py's
// hardcoded noise-tag list.
var noiseTagSet = map[string]bool{
	"seen live": true,
	"favorites": true,
	"favourite": true,
	"favorite":  true,
	"love":      true,
}

var trackSuffixPattern = regexp.MustCompile(`(?i)\s*[\(\[][^)\]]*[\)\]]\s*$|\s*-\s*(remix|live|remaster(ed)?|acoustic|version|edit)\b.*$`)

var digitsOnlyPattern = regexp.MustCompile(`^\d+$`)

// normalizeTag lowercases and trims a Last.fm tag name, mirroring
// _normalize_tag.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// cleanTrackName strips parenthetical/bracketed suffixes and trailing
// " - remix"/"- live" style qualifiers, mirroring _clean_track_name, so
// a track title can be compared against tag text without false noise.
func cleanTrackName(name string) string {
	cleaned := trackSuffixPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(cleaned)
}

// extractLastfmTags normalizes the tag list coming back from
// track.getInfo/artist.getInfo into plain lowercase strings.
func extractLastfmTags(tags []lastfm.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if norm := normalizeTag(t.Name); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// filterTag reports whether a normalized tag is a usable genre
// candidate: not listener noise, not purely numeric, not the artist's
// own name, and not equal to any of the sampled track names (once
// cleaned), mirroring _filter_tag.
func filterTag(tag, artistNameNorm string, cleanedTrackNames []string) bool {
	if tag == "" {
		return false
	}
	if noiseTagSet[tag] {
		return false
	}
	if digitsOnlyPattern.MatchString(tag) {
		return false
	}
	if tag == artistNameNorm {
		return false
	}
	for _, name := range cleanedTrackNames {
		if len(name) >= 4 && tag == strings.ToLower(name) {
			return false
		}
	}
	return true
}

// extractGenresFromLastfmTags filters and caps a raw tag list down to
// genre candidates, mirroring extract_genres_from_lastfm_tags: it
// applies the same noise/digit/artist-name filters as filterTag (minus
// the track-name check, which only applies to per-track sampling) and
// caps at maxTags while preserving Last.fm's relevance ordering and
// de-duplicating.
func extractGenresFromLastfmTags(tags []lastfm.Tag, artistNameNorm string, maxTags int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		norm := normalizeTag(t.Name)
		if !filterTag(norm, artistNameNorm, nil) {
			continue
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
		if len(out) >= maxTags {
			break
		}
	}
	return out
}

// GenreBackfill is the Background Loops component (C8) that fills in
// missing genre tags for artists by sampling their top tracks' Last.fm
// tags, falling back to the artist's own tag list when no track
// sample yields anything usable. Grounded on
// original_source/app/core/genre_backfill.py's genre_backfill_loop,
// derive_genres_from_tracks and derive_genres_from_artist_tags.
type GenreBackfill struct {
	store    *entitystore.Store
	writer   *catalog.Writer
	lastfm   *lastfm.Client
	interval time.Duration
	batch    int
	maxTags  int
	sampleN  int
}

// NewGenreBackfill constructs the loop from its entitystore, catalog
// writer, Last.fm client, and entity config.
func NewGenreBackfill(store *entitystore.Store, writer *catalog.Writer, lf *lastfm.Client, cfg config.EntitiesConfig) *GenreBackfill {
	return &GenreBackfill{
		store:    store,
		writer:   writer,
		lastfm:   lf,
		interval: 2 * time.Hour,
		batch:    cfg.GenreBackfillBatch,
		maxTags:  cfg.GenreBackfillTopTags,
		sampleN:  3,
	}
}

// String identifies the service for supervisor logging.
func (g *GenreBackfill) String() string { return "genre-backfill-loop" }

// Serve runs the sweep every interval until ctx is canceled, per
// suture.Service's contract.
func (g *GenreBackfill) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.runOnce(ctx)
		}
	}
}

func (g *GenreBackfill) runOnce(ctx context.Context) {
	start := time.Now()
	outcome := "ok"

	artists, err := g.store.ListArtistsMissingGenres(ctx, g.batch)
	if err != nil {
		outcome = "error"
		metrics.RecordLoopRun("genre_backfill", outcome, time.Since(start))
		return
	}

	missing := len(artists)
	for _, artist := range artists {
		if ctx.Err() != nil {
			break
		}
		genres := g.deriveGenresFromTracks(ctx, artist)
		if len(genres) == 0 {
			genres = g.deriveGenresFromArtistTags(ctx, artist)
		}
		if len(genres) == 0 {
			continue
		}
		artist.Genres = genres
		if _, err := g.writer.SaveArtist(ctx, artist); err == nil {
			missing--
		}
	}

	metrics.SetArtistsMissingField("genres", missing)
	metrics.RecordLoopRun("genre_backfill", outcome, time.Since(start))
}

// deriveGenresFromTracks samples up to sampleN top tracks for the
// artist, fetches each track's Last.fm tags, tallies filtered tag
// frequency, and returns the top maxTags tags by count, mirroring
// derive_genres_from_tracks.
func (g *GenreBackfill) deriveGenresFromTracks(ctx context.Context, artist *entitystore.Artist) []string {
	tracks, err := g.store.ListTracksByArtist(ctx, artist.ID, g.sampleN)
	if err != nil || len(tracks) == 0 {
		return nil
	}

	artistNorm := normalizeTag(artist.Name)
	cleanedNames := make([]string, 0, len(tracks))
	for _, t := range tracks {
		cleanedNames = append(cleanedNames, cleanTrackName(t.Name))
	}

	counts := make(map[string]int)
	var order []string
	for _, t := range tracks {
		info, err := g.lastfm.GetTrackInfo(ctx, artist.Name, t.Name)
		if err != nil {
			continue
		}
		for _, norm := range extractLastfmTags(info.Tags) {
			if !filterTag(norm, artistNorm, cleanedNames) {
				continue
			}
			if counts[norm] == 0 {
				order = append(order, norm)
			}
			counts[norm]++
		}
	}
	return topTagsByCount(order, counts, g.maxTags)
}

// deriveGenresFromArtistTags falls back to the artist's own top tags
// when no track sample produced a usable genre, mirroring
// derive_genres_from_artist_tags.
func (g *GenreBackfill) deriveGenresFromArtistTags(ctx context.Context, artist *entitystore.Artist) []string {
	info, err := g.lastfm.GetArtistInfo(ctx, artist.Name)
	if err != nil {
		return nil
	}
	return extractGenresFromLastfmTags(info.Tags, normalizeTag(artist.Name), g.maxTags)
}

// topTagsByCount returns up to maxTags entries from order, sorted by
// descending count with first-seen order as the tiebreak (mirroring
// Counter.most_common's stable behavior for ties).
func topTagsByCount(order []string, counts map[string]int, maxTags int) []string {
	sorted := append([]string(nil), order...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && counts[sorted[j]] > counts[sorted[j-1]]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > maxTags {
		sorted = sorted[:maxTags]
	}
	return sorted
}
