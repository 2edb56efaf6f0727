// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"database/sql"
	"time"
)

// YouTubeLink statuses, per the data model's state machine.
const (
	LinkStatusPending        = "pending"
	LinkStatusLinkFound      = "link_found"
	LinkStatusCompleted      = "completed"
	LinkStatusVideoNotFound  = "video_not_found"
	LinkStatusMissing        = "missing"
	LinkStatusError          = "error"
)

// Alias entity kinds.
const (
	EntityKindArtist = "artist"
	EntityKindAlbum  = "album"
	EntityKindTrack  = "track"
)

// Artist is a local row for a performing artist, optionally mirrored
// from an external provider.
type Artist struct {
	ID              int64
	ProviderID      string
	Name            string
	NormalizedName  string
	Genres          []string
	ImageRef        string
	Popularity      int
	Followers       int64
	BioSummary      string
	BioText         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastRefreshedAt time.Time
}

// Album is a local row for a release, always owned by exactly one artist.
type Album struct {
	ID            int64
	ProviderID    string
	Name          string
	ArtistID      int64
	ReleaseDate   string
	TotalTracks   int
	Label         string
	ImageRef      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Track is a local row for a song, owned by an artist and optionally an album.
type Track struct {
	ID             int64
	ProviderID     string
	Name           string
	ArtistID       int64
	AlbumID        sql.NullInt64
	DurationMs     int
	Popularity     int
	PreviewURL     string
	ExternalURL    string
	DownloadPath   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// YouTubeLink is one-to-one with a Track, identified by the track's
// provider id (not its local id — providers don't always assign a
// local row before a link is resolved).
type YouTubeLink struct {
	TrackProviderID string
	VideoID         string
	DownloadPath    string
	Status          string
	FileSize        int64
	ErrorMessage    string
	UpdatedAt       time.Time
}

// Alias is a searchable name variant for an artist, album, or track.
type Alias struct {
	ID             int64
	EntityKind     string
	EntityLocalID  int64
	Raw            string
	Normalized     string
	Source         string
}

// ChartEntryRaw is a single (source, chart, date, rank) observation.
type ChartEntryRaw struct {
	ID        int64
	Source    string
	Chart     string
	ChartDate time.Time
	Rank      int
	Title     string
	Artist    string
}

// TrackChartStats is a derived rollup over ChartEntryRaw for one track.
type TrackChartStats struct {
	TrackID        int64
	Source         string
	Chart          string
	BestPosition   int
	WeeksOnChart   int
	WeeksAtOne     int
	WeeksTop5      int
	WeeksTop10     int
	FirstChartDate time.Time
	LastChartDate  time.Time
}

// ChartScanState tracks the scraper's backfill cursor per (source, chart).
type ChartScanState struct {
	Source           string
	Chart            string
	LastScannedDate  time.Time
	BackfillComplete bool
}

// SearchCacheEntry is a persisted search result, read back with a TTL
// applied at read time rather than at write time.
type SearchCacheEntry struct {
	CacheKey  string
	Payload   []byte
	Context   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
