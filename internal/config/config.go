// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package config

import "time"

// Config is the root configuration for melodex, loaded in layers
// (defaults -> YAML file -> environment) by LoadWithKoanf.
type Config struct {
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Lastfm   LastfmConfig   `koanf:"lastfm"`
	YouTube  YouTubeConfig  `koanf:"youtube"`
	Ytdlp    YtdlpConfig    `koanf:"ytdlp"`
	Storage  StorageConfig  `koanf:"storage"`
	Chart    ChartConfig    `koanf:"chart"`
	Search   SearchConfig   `koanf:"search"`
	Entities EntitiesConfig `koanf:"entities"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// SpotifyConfig holds credentials and tuning for the Spotify-shaped
// metadata provider (C2).
type SpotifyConfig struct {
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	BaseURL        string        `koanf:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// LastfmConfig holds credentials and tuning for the Last.fm-shaped
// stats/similarity provider (C2). Last.fm has no hard rate floor in the
// upstream API but melodex self-imposes one to stay a good citizen.
type LastfmConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	MinRequestGap   time.Duration `koanf:"min_request_gap"`
}

// YouTubeConfig holds the rotating key ring and quota tuning for the
// YouTube-shaped video provider (C2, C7).
type YouTubeConfig struct {
	APIKey          string        `koanf:"api_key"`
	APIKey2         string        `koanf:"api_key_2"`
	BaseURL         string        `koanf:"base_url"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	MinRequestGap   time.Duration `koanf:"min_request_gap"`
	DailyRequestCap int           `koanf:"daily_request_cap"`
	QuotaAnchorHour int           `koanf:"quota_anchor_hour"`
	SearchCacheTTL  time.Duration `koanf:"search_cache_ttl"`
	SearchCacheSize int           `koanf:"search_cache_size"`
}

// YtdlpConfig configures the command-line-extractor fallback path used
// when the YouTube API is disabled or returns no candidates (§4.7).
type YtdlpConfig struct {
	FallbackEnabled  bool          `koanf:"fallback_enabled"`
	DailyLimit       int           `koanf:"daily_limit"`
	MinIntervalSecs  time.Duration `koanf:"min_interval_seconds"`
}

// StorageConfig points to the local artifact/log root (§6.4, §6.5).
type StorageConfig struct {
	Root             string        `koanf:"root"`
	LogRetentionDays int           `koanf:"log_retention_days"`
	PruneInterval    time.Duration `koanf:"prune_interval"`
}

// ChartConfig tunes the chart scraper/matcher loop (§4.8, §6.5).
type ChartConfig struct {
	Charts                      []string      `koanf:"charts"`
	BackfillStartDate           string        `koanf:"backfill_start_date"`
	BackfillYears               int           `koanf:"backfill_years"`
	MaxWeeksPerRun              int           `koanf:"max_weeks_per_run"`
	MaxRank                     int           `koanf:"max_rank"`
	RequestMinDelay             time.Duration `koanf:"request_min_delay"`
	RequestMaxDelay             time.Duration `koanf:"request_max_delay"`
	RefreshInterval             time.Duration `koanf:"refresh_interval"`
	MatchRefreshInterval        time.Duration `koanf:"match_refresh_interval"`
}

// SearchConfig tunes the orchestrator (C9) and curated-lists cache (C10).
type SearchConfig struct {
	CacheTTL               time.Duration `koanf:"cache_ttl"`
	CacheSize              int           `koanf:"cache_size"`
	PersistCacheTTL        time.Duration `koanf:"persist_cache_ttl"`
	ExternalTrackTimeout   time.Duration `koanf:"external_track_timeout"`
	ExternalTagTimeout     time.Duration `koanf:"external_tag_timeout"`
	ExternalArtistTimeout  time.Duration `koanf:"external_artist_timeout"`
	ExternalSimilarTimeout time.Duration `koanf:"external_similar_timeout"`
	ArtistEnrichConcurrent int           `koanf:"artist_enrich_concurrent"`
	MinFollowerFloor       int           `koanf:"min_follower_floor"`
	SimilarFollowerFloor   int           `koanf:"similar_follower_floor"`
	AutoExpandCount        int           `koanf:"auto_expand_count"`
	CuratedListTTL         time.Duration `koanf:"curated_list_ttl"`
}

// EntitiesConfig tunes freshness/expansion defaults (C5, C6).
type EntitiesConfig struct {
	ArtistMaxAge          time.Duration `koanf:"artist_max_age"`
	AlbumMaxAge           time.Duration `koanf:"album_max_age"`
	TrackMaxAge           time.Duration `koanf:"track_max_age"`
	BulkRefreshBatch      int           `koanf:"bulk_refresh_batch"`
	BulkRefreshPacing     time.Duration `koanf:"bulk_refresh_pacing"`
	GenreBackfillBatch    int           `koanf:"genre_backfill_batch"`
	GenreBackfillTopTags  int           `koanf:"genre_backfill_top_tags"`
	LibraryRefreshBatch   int           `koanf:"library_refresh_batch"`
	LinkErrorCooldown     time.Duration `koanf:"link_error_cooldown"`
	LinkNotFoundCooldown  time.Duration `koanf:"link_not_found_cooldown"`
}

// ServerConfig configures the ambient HTTP transport (§2.5) — out of
// core scope, but needed to run melodex as a binary.
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	DatabasePath   string        `koanf:"database_path"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns sane defaults for every field, matching spec.md
// §4 and §6.5 where a numeric default is called out.
func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			BaseURL:        "https://api.spotify.com/v1",
			RequestTimeout: 4 * time.Second,
		},
		Lastfm: LastfmConfig{
			BaseURL:        "https://ws.audioscrobbler.com/2.0/",
			RequestTimeout: 6 * time.Second,
			MinRequestGap:  1 * time.Second,
		},
		YouTube: YouTubeConfig{
			BaseURL:         "https://www.googleapis.com/youtube/v3",
			RequestTimeout:  5 * time.Second,
			MinRequestGap:   5 * time.Second,
			DailyRequestCap: 80,
			QuotaAnchorHour: 4,
			SearchCacheTTL:  6 * time.Hour,
			SearchCacheSize: 2000,
		},
		Ytdlp: YtdlpConfig{
			FallbackEnabled: true,
			DailyLimit:      50,
			MinIntervalSecs: 3 * time.Second,
		},
		Storage: StorageConfig{
			Root:             "/data/melodex",
			LogRetentionDays: 30,
			PruneInterval:    6 * time.Hour,
		},
		Chart: ChartConfig{
			Charts:                []string{"hot-100"},
			BackfillYears:         1,
			MaxWeeksPerRun:        4,
			MaxRank:               100,
			RequestMinDelay:       2 * time.Second,
			RequestMaxDelay:       6 * time.Second,
			RefreshInterval:       24 * time.Hour,
			MatchRefreshInterval:  12 * time.Hour,
		},
		Search: SearchConfig{
			CacheTTL:               60 * time.Second,
			CacheSize:               500,
			PersistCacheTTL:        1 * time.Hour,
			ExternalTrackTimeout:   4 * time.Second,
			ExternalTagTimeout:     6 * time.Second,
			ExternalArtistTimeout:  4 * time.Second,
			ExternalSimilarTimeout: 5 * time.Second,
			ArtistEnrichConcurrent: 15,
			MinFollowerFloor:       300000,
			SimilarFollowerFloor:   1000000,
			AutoExpandCount:        8,
			CuratedListTTL:         5 * time.Minute,
		},
		Entities: EntitiesConfig{
			ArtistMaxAge:         24 * time.Hour,
			AlbumMaxAge:          168 * time.Hour,
			TrackMaxAge:          168 * time.Hour,
			BulkRefreshBatch:     50,
			BulkRefreshPacing:    250 * time.Millisecond,
			GenreBackfillBatch:   100,
			GenreBackfillTopTags: 6,
			LibraryRefreshBatch:  30,
			LinkErrorCooldown:    12 * time.Hour,
			LinkNotFoundCooldown: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8787,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			DatabasePath: "/data/melodex/catalog.duckdb",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
