// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package curated

import "time"

// List names, matching spec.md's six named curated lists.
const (
	ListFavoritesWithLink = "favorites-with-link"
	ListDownloaded        = "downloaded"
	ListDiscovery         = "discovery"
	ListTopYear           = "top-year"
	ListMostPlayed        = "most-played"
	ListGenreSuggestions  = "genre-suggestions"
)

// ListNames enumerates every known list, in the order refresh_all_lists
// (GetAllLists) iterates them.
var ListNames = []string{
	ListFavoritesWithLink,
	ListDownloaded,
	ListDiscovery,
	ListTopYear,
	ListMostPlayed,
	ListGenreSuggestions,
}

// Track is one curated-list entry: enough of a track to render a row
// without a follow-up lookup.
type Track struct {
	ID               int64  `json:"id"`
	ProviderID       string `json:"provider_id,omitempty"`
	Name             string `json:"name"`
	DurationMs       int    `json:"duration_ms"`
	Popularity       int    `json:"popularity"`
	ImageURL         string `json:"image_url,omitempty"`
	VideoID          string `json:"video_id,omitempty"`
	DownloadPath     string `json:"download_path,omitempty"`
	DownloadStatus   string `json:"download_status,omitempty"`
	ArtistName       string `json:"artist_name"`
	ArtistProviderID string `json:"artist_provider_id,omitempty"`
	AlbumName        string `json:"album_name,omitempty"`
	AlbumProviderID  string `json:"album_provider_id,omitempty"`
}

// ListResult is the response shape for a single curated list: the
// generated items plus cache provenance, mirroring the original's
// {items, last_updated, is_cached, total} response.
type ListResult struct {
	List        string    `json:"list"`
	Items       []Track   `json:"items"`
	Total       int       `json:"total"`
	LastUpdated time.Time `json:"last_updated"`
	Cached      bool      `json:"is_cached"`
}
