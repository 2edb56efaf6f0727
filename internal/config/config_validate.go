// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package config

import (
	"errors"
	"fmt"
)

// Validate checks the merged configuration for internal consistency.
// Provider credentials are only required when that provider is the
// sole source for a capability melodex cannot run without; Spotify
// is melodex's primary metadata source so its credentials are
// mandatory, while Last.fm and YouTube degrade gracefully to a
// reduced feature set when unconfigured (spec.md §6.5).
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		errs = append(errs, errors.New("spotify.client_id and spotify.client_secret are required"))
	}

	if cfg.YouTube.APIKey == "" && !cfg.Ytdlp.FallbackEnabled {
		errs = append(errs, errors.New("youtube.api_key is empty and ytdlp.fallback_enabled is false: no way to resolve video links"))
	}

	if cfg.Entities.ArtistMaxAge <= 0 || cfg.Entities.AlbumMaxAge <= 0 || cfg.Entities.TrackMaxAge <= 0 {
		errs = append(errs, errors.New("entities.*_max_age must be positive"))
	}

	if cfg.Chart.MaxRank <= 0 {
		errs = append(errs, errors.New("chart.max_rank must be positive"))
	}
	if cfg.Chart.RequestMinDelay > cfg.Chart.RequestMaxDelay {
		errs = append(errs, errors.New("chart.request_min_delay must not exceed chart.request_max_delay"))
	}

	if cfg.Search.MinFollowerFloor < 0 || cfg.Search.SimilarFollowerFloor < 0 {
		errs = append(errs, errors.New("search follower floors must not be negative"))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", cfg.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
