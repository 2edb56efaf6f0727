// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists locations checked for a YAML config file when
// CONFIG_PATH is not set, in order.
var DefaultConfigPaths = []string{
	"./melodex.yaml",
	"./config/melodex.yaml",
	"/etc/melodex/config.yaml",
}

var (
	kInstance *koanf.Koanf
	kOnce     sync.Once
)

// envKeyMap maps a flat MELODEX_-prefixed environment variable name to
// its dotted koanf path. Only variables with a name that doesn't map
// mechanically (struct field name -> snake case) need an entry here;
// everything else falls through to the default transform.
var envKeyMap = map[string]string{
	"MELODEX_SPOTIFY_CLIENT_ID":           "spotify.client_id",
	"MELODEX_SPOTIFY_CLIENT_SECRET":       "spotify.client_secret",
	"MELODEX_LASTFM_API_KEY":              "lastfm.api_key",
	"MELODEX_YOUTUBE_API_KEY":             "youtube.api_key",
	"MELODEX_YOUTUBE_API_KEY_2":           "youtube.api_key_2",
	"MELODEX_YOUTUBE_DAILY_REQUEST_CAP":   "youtube.daily_request_cap",
	"MELODEX_YOUTUBE_QUOTA_ANCHOR_HOUR":   "youtube.quota_anchor_hour",
	"MELODEX_YTDLP_FALLBACK_ENABLED":      "ytdlp.fallback_enabled",
	"MELODEX_YTDLP_DAILY_LIMIT":           "ytdlp.daily_limit",
	"MELODEX_STORAGE_ROOT":                "storage.root",
	"MELODEX_STORAGE_LOG_RETENTION_DAYS":  "storage.log_retention_days",
	"MELODEX_CHART_CHARTS":                "chart.charts",
	"MELODEX_CHART_BACKFILL_START_DATE":   "chart.backfill_start_date",
	"MELODEX_CHART_BACKFILL_YEARS":        "chart.backfill_years",
	"MELODEX_CHART_MAX_WEEKS_PER_RUN":     "chart.max_weeks_per_run",
	"MELODEX_CHART_MAX_RANK":              "chart.max_rank",
	"MELODEX_SEARCH_MIN_FOLLOWER_FLOOR":   "search.min_follower_floor",
	"MELODEX_SEARCH_SIMILAR_FOLLOWER_FLOOR": "search.similar_follower_floor",
	"MELODEX_SEARCH_AUTO_EXPAND_COUNT":    "search.auto_expand_count",
	"MELODEX_SERVER_HOST":                 "server.host",
	"MELODEX_SERVER_PORT":                 "server.port",
	"MELODEX_SERVER_DATABASE_PATH":        "server.database_path",
	"MELODEX_LOG_LEVEL":                   "logging.level",
	"MELODEX_LOG_FORMAT":                  "logging.format",
	"MELODEX_LOG_CALLER":                  "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Known names resolve via envKeyMap; everything else is derived
// mechanically by stripping the MELODEX_ prefix and lowercasing, which
// covers the straightforward *_TIMEOUT/*_INTERVAL/*_TTL style knobs.
func envTransformFunc(key string) string {
	if mapped, ok := envKeyMap[key]; ok {
		return mapped
	}
	trimmed := strings.TrimPrefix(key, "MELODEX_")
	return strings.ToLower(trimmed)
}

// findConfigFile resolves the YAML config path: CONFIG_PATH env var if
// set, else the first existing entry in DefaultConfigPaths, else "".
func findConfigFile() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	for _, candidate := range DefaultConfigPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadWithKoanf loads the melodex configuration in three layers:
// struct defaults, an optional YAML file, then environment overrides.
// It validates the merged result before returning.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("MELODEX_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	kOnce.Do(func() { kInstance = k })

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetKoanfInstance returns the koanf instance populated by the most
// recent LoadWithKoanf call, or nil if LoadWithKoanf has not run yet.
// Intended for admin/debug endpoints that dump the resolved config.
func GetKoanfInstance() *koanf.Koanf {
	return kInstance
}
