// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

/*
Package config provides centralized configuration management for melodex.

Configuration loads in three layers, each overriding the previous:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file, resolved from CONFIG_PATH or DefaultConfigPaths
 3. Environment variables prefixed MELODEX_

# Configuration Structure

  - SpotifyConfig: credentials and timeouts for the metadata provider
  - LastfmConfig: API key and pacing for the stats/similarity provider
  - YouTubeConfig: key ring, quota anchor, and search cache tuning
  - YtdlpConfig: command-line extractor fallback limits
  - StorageConfig: local artifact/log root and retention
  - ChartConfig: chart scraper/matcher backfill and pacing
  - SearchConfig: orchestrator timeouts, follower floors, cache TTLs
  - EntitiesConfig: freshness max-ages and background loop batch sizes
  - ServerConfig: HTTP transport and database path
  - LoggingConfig: zerolog level/format/caller

# Environment Variables

Selected variables (see config.go for the full default set):

  - MELODEX_SPOTIFY_CLIENT_ID, MELODEX_SPOTIFY_CLIENT_SECRET: required
  - MELODEX_LASTFM_API_KEY: optional, degrades similarity/tag features
  - MELODEX_YOUTUBE_API_KEY, MELODEX_YOUTUBE_API_KEY_2: optional key ring
  - MELODEX_YTDLP_FALLBACK_ENABLED: required true if no YouTube key is set
  - MELODEX_STORAGE_ROOT: local artifact root (default /data/melodex)
  - MELODEX_CHART_CHARTS: comma-separated chart identifiers to track
  - MELODEX_SERVER_PORT: HTTP listen port (default 8787)
  - MELODEX_LOG_LEVEL, MELODEX_LOG_FORMAT: zerolog tuning

Names not present in envKeyMap fall through to a mechanical transform
(strip the MELODEX_ prefix, lowercase, dot-separate by underscore run),
which covers most *_TIMEOUT/*_TTL/*_INTERVAL style knobs without an
explicit map entry.

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("invalid configuration")
	}

# Validation

Validate is run automatically by LoadWithKoanf and checks: Spotify
credentials are present, a video resolution path exists (YouTube key or
ytdlp fallback), freshness max-ages are positive, the chart delay range
is well-formed, follower floors are non-negative, and the server port is
in range.

# Thread Safety

The Config struct is immutable after LoadWithKoanf returns.
*/
package config
