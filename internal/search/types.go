// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import "github.com/melodex/core/internal/providers/spotify"

// ArtistCard is the normalized `{spotify, lastfm}` artist pair spec.md
// §4.9 step 4 calls for. Spotify carries identity/stats/images;
// Lastfm carries bio and similarity-derived fields. Either half may be
// nil when only one provider (or the local catalog) contributed.
type ArtistCard struct {
	Name    string          `json:"name"`
	Spotify *SpotifyArtist  `json:"spotify,omitempty"`
	Lastfm  *LastfmArtist   `json:"lastfm,omitempty"`
	Local   bool            `json:"local"`
}

// SpotifyArtist is the trimmed Spotify-shaped half of an ArtistCard.
type SpotifyArtist struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Genres     []string        `json:"genres"`
	Images     []spotify.Image `json:"images,omitempty"`
	Popularity int             `json:"popularity"`
	Followers  int64           `json:"followers"`
}

// LastfmArtist is the trimmed Last.fm-shaped half of an ArtistCard.
type LastfmArtist struct {
	Listeners int64  `json:"listeners"`
	PlayCount int64  `json:"playcount"`
	Summary   string `json:"summary,omitempty"`
}

// AlbumLite is the trimmed album shape nested under a TrackResult.
type AlbumLite struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Images []spotify.Image `json:"images,omitempty"`
}

// TrackResult is the trimmed track shape spec.md §4.9 step 4 names:
// id, name, duration_ms, popularity, preview_url, explicit, artists,
// album{..., images}.
type TrackResult struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DurationMs int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	PreviewURL string          `json:"preview_url,omitempty"`
	Explicit   bool            `json:"explicit"`
	Artists    []ArtistLite    `json:"artists"`
	Album      *AlbumLite      `json:"album,omitempty"`
}

// ArtistLite is the minimal artist reference nested under a track.
type ArtistLite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Response is orchestrated_search's full payload, matching spec.md
// §6.3's `GET /search/orchestrated` contract
// (query, page, limit, has_more_artists, has_more_lastfm, main,
// artists, related, tracks, lastfm_top), grounded on
// original_source/app/api/search.py:884-897's payload dict. Source is
// an extra ambient field (not part of that contract) kept for the
// local/external distinction the rest of this package already logs on.
type Response struct {
	Source         string        `json:"source"` // "local" or "external"
	Query          string        `json:"query"`
	Page           int           `json:"page"`
	Limit          int           `json:"limit"`
	HasMoreArtists bool          `json:"has_more_artists"`
	HasMoreLastfm  bool          `json:"has_more_lastfm"`
	Main           *ArtistCard   `json:"main,omitempty"`
	Artists        []ArtistCard  `json:"artists"`
	Related        []ArtistCard  `json:"related"`
	Tracks         []TrackResult `json:"tracks"`
	LastfmTop      []ArtistCard  `json:"lastfm_top"`
}

// ArtistProfileResponse is artist_profile(q)'s payload: a main artist
// plus its similar-artist neighborhood.
type ArtistProfileResponse struct {
	Source  string       `json:"source"`
	Main    *ArtistCard  `json:"main,omitempty"`
	Similar []ArtistCard `json:"similar,omitempty"`
}

// TracksQuickResponse is tracks_quick(q)'s payload, matching spec.md
// §6.3's `GET /search/tracks-quick` contract of {query, tracks}.
type TracksQuickResponse struct {
	Source string        `json:"source"`
	Query  string        `json:"query"`
	Tracks []TrackResult `json:"tracks"`
}
