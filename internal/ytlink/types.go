// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package ytlink implements the YouTube Link Resolver (C7): it drives
// a track's YouTubeLink row through the pending -> link_found /
// video_not_found / error state machine, searching the YouTube Data
// API first and falling back to a command-line extractor when the API
// is disabled, its quota is exhausted, or it finds nothing. Grounded
// on original_source/app/core/youtube.py's search_music_videos (API
// path), search_music_videos_ytdlp (fallback path) and
// original_source/app/core/youtube_prefetch.py (the background
// sweep). The extractor itself belongs to a Media Fetcher
// collaborator outside this package; ytlink only defines the contract
// it composes against.
package ytlink

import (
	"context"

	"github.com/melodex/core/internal/providers/youtube"
)

// Extractor is the command-line video search fallback (yt-dlp-shaped)
// used when the YouTube Data API path is disabled, exhausted, or
// returns no usable candidates. Grounded on
// original_source/app/core/youtube.py's _ytdlp_search_sync: a
// synchronous search-by-string-query returning raw candidates, which
// ytlink then scores with youtube.FilterMusicVideos exactly as the API
// path's results are scored.
type Extractor interface {
	Search(ctx context.Context, artist, track, album string, maxResults int) ([]youtube.Video, error)
}

// Fallback invocation reasons, recorded against
// metrics.RecordFallbackInvocation and the JSON-lines fallback log.
const (
	fallbackReasonAPIDisabled  = "api_disabled"
	fallbackReasonAPIExhausted = "api_exhausted"
	fallbackReasonAPIEmpty     = "api_empty"
	fallbackReasonAPIError     = "api_error"
)

// defaultMaxResults mirrors search_music_videos_ytdlp's default
// max_results of 5.
const defaultMaxResults = 5
