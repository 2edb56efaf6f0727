// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package ytlink

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/cache"
	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers"
	"github.com/melodex/core/internal/providers/youtube"
)

// Resolver is the YouTube Link Resolver (C7).
type Resolver struct {
	catalog     *catalog.Writer
	youtube     *youtube.Client
	extractor   Extractor
	fallback    *fallbackQuota
	fallbackLog *fallbackLogger
	searchCache *cache.LRUCache[[]youtube.Video]
	log         zerolog.Logger
}

// New builds a Resolver. extractor may be nil, in which case the
// fallback path is always unavailable regardless of configuration.
func New(writer *catalog.Writer, ytClient *youtube.Client, extractor Extractor, ytCfg config.YouTubeConfig, ytdlpCfg config.YtdlpConfig, storageCfg config.StorageConfig, log zerolog.Logger) *Resolver {
	capacity := ytCfg.SearchCacheSize
	if capacity <= 0 {
		capacity = 2000
	}
	ttl := ytCfg.SearchCacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Resolver{
		catalog:     writer,
		youtube:     ytClient,
		extractor:   extractor,
		fallback:    newFallbackQuota(ytdlpCfg),
		fallbackLog: newFallbackLogger(storageCfg.Root, storageCfg.LogRetentionDays),
		searchCache: cache.NewLRUCache[[]youtube.Video](capacity, ttl),
		log:         log.With().Str("component", "ytlink").Logger(),
	}
}

// FallbackUsage reports the command-line extractor's daily usage,
// mirroring get_ytdlp_usage, for the fallback status endpoint.
func (r *Resolver) FallbackUsage() (requestsTotal, requestsLimit, remaining int) {
	return r.fallback.usage()
}

// FallbackEnabled reports whether the fallback path currently runs,
// mirroring is_ytdlp_enabled.
func (r *Resolver) FallbackEnabled() bool {
	return r.fallback.enabled()
}

// SetFallbackEnabled applies a runtime on/off override, mirroring
// set_ytdlp_enabled.
func (r *Resolver) SetFallbackEnabled(enabled bool) {
	r.fallback.setEnabled(enabled)
}

// FallbackLogPath returns where the fallback invocation log lives.
func (r *Resolver) FallbackLogPath() string {
	return r.fallbackLog.logPath()
}

// FallbackLogs returns the most recent fallback invocations, up to limit.
func (r *Resolver) FallbackLogs(limit int) ([]fallbackLogEntry, error) {
	return r.fallbackLog.readRecent(limit)
}

// FallbackLogCount returns the number of non-expired fallback log entries.
func (r *Resolver) FallbackLogCount() (int, error) {
	return r.fallbackLog.count()
}

// Resolve drives trackProviderID's YouTubeLink through the
// pending -> link_found/video_not_found/error state machine: a cached
// result is reused first, otherwise the API path is tried, falling
// back to the command-line extractor on a disabled/exhausted/empty API
// path, and the outcome is persisted through the Catalog Writer.
func (r *Resolver) Resolve(ctx context.Context, trackProviderID, artist, track, album string) (*entitystore.YouTubeLink, error) {
	start := time.Now()
	key := searchCacheKey(artist, track, album, defaultMaxResults)

	videos, hit := r.searchCache.Get(key)
	metrics.RecordYTLinkCacheResult(hit)

	path := "cache"
	var quotaErr error
	if !hit {
		videos, path, quotaErr = r.search(ctx, artist, track, album, defaultMaxResults)
		if quotaErr == nil {
			r.searchCache.Add(key, videos)
		}
	}

	var link *entitystore.YouTubeLink
	var err error
	switch {
	case quotaErr != nil:
		link, err = r.catalog.SaveYouTubeLink(ctx, &entitystore.YouTubeLink{
			TrackProviderID: trackProviderID,
			Status:          entitystore.LinkStatusError,
			ErrorMessage:    quotaErr.Error(),
		})
		metrics.RecordYTLinkResolution(path, entitystore.LinkStatusError, time.Since(start))
	case len(videos) == 0:
		link, err = r.catalog.SaveYouTubeLink(ctx, &entitystore.YouTubeLink{
			TrackProviderID: trackProviderID,
			Status:          entitystore.LinkStatusVideoNotFound,
			ErrorMessage:    "no candidate videos matched",
		})
		metrics.RecordYTLinkResolution(path, entitystore.LinkStatusVideoNotFound, time.Since(start))
	default:
		link, err = r.catalog.SaveYouTubeLink(ctx, &entitystore.YouTubeLink{
			TrackProviderID: trackProviderID,
			VideoID:         videos[0].VideoID,
			Status:          entitystore.LinkStatusLinkFound,
		})
		metrics.RecordYTLinkResolution(path, entitystore.LinkStatusLinkFound, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// search runs the API path first, falling back to the command-line
// extractor per buildFallbackReason. A non-nil error is returned only
// when the API reported quota exhaustion and the fallback path could
// not be attempted at all (disabled, its own daily limit reached, or
// not configured) — the one case the state machine maps to "error"
// rather than "video_not_found".
func (r *Resolver) search(ctx context.Context, artist, track, album string, maxResults int) ([]youtube.Video, string, error) {
	if r.youtube == nil || !r.youtube.HasAPIKey() {
		videos, _ := r.searchFallback(ctx, artist, track, album, maxResults, fallbackReasonAPIDisabled)
		return videos, "fallback", nil
	}

	videos, err := r.youtube.SearchMusicVideos(ctx, artist, track, album, maxResults)
	if err == nil && len(videos) > 0 {
		return videos, "api", nil
	}

	reason := fallbackReasonAPIEmpty
	switch {
	case errors.Is(err, providers.ErrQuotaExceeded):
		reason = fallbackReasonAPIExhausted
	case err != nil:
		reason = fallbackReasonAPIError
		r.log.Warn().Err(err).Str("artist", artist).Str("track", track).Msg("api search failed, trying fallback")
	}

	fbVideos, attempted := r.searchFallback(ctx, artist, track, album, maxResults, reason)
	if len(fbVideos) > 0 {
		return fbVideos, "fallback", nil
	}
	if !attempted && errors.Is(err, providers.ErrQuotaExceeded) {
		return nil, "api", providers.ErrQuotaExceeded
	}
	return nil, "api", nil
}

// searchFallback runs the command-line extractor and scores its
// results the same way the API path's are scored, logging the
// invocation regardless of outcome. attempted reports whether the
// extractor was actually invoked (false if disabled or over budget).
func (r *Resolver) searchFallback(ctx context.Context, artist, track, album string, maxResults int, reason string) (videos []youtube.Video, attempted bool) {
	if r.extractor == nil || !r.fallback.enabled() {
		return nil, false
	}
	if !r.fallback.canRequest() {
		r.log.Warn().Msg("yt-dlp fallback daily limit reached")
		return nil, false
	}
	if err := r.fallback.wait(ctx); err != nil {
		return nil, false
	}
	r.fallback.increment()
	metrics.RecordFallbackInvocation(reason)

	raw, err := r.extractor.Search(ctx, artist, track, album, maxResults)
	entry := fallbackLogEntry{Artist: artist, Track: track, Album: album, Reason: reason}
	if err != nil {
		entry.Error = err.Error()
		r.log.Warn().Err(err).Str("artist", artist).Str("track", track).Msg("yt-dlp fallback search failed")
	}

	filtered := youtube.FilterMusicVideos(raw, artist, track)
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	entry.Found = len(filtered) > 0
	if logErr := r.fallbackLog.append(entry); logErr != nil {
		r.log.Warn().Err(logErr).Msg("could not write fallback log")
	}
	return filtered, true
}

// searchCacheKey mirrors _cache_key: lowercased artist|track|album
// joined with the requested result count.
func searchCacheKey(artist, track, album string, maxResults int) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(artist)),
		strings.ToLower(strings.TrimSpace(track)),
		strings.ToLower(strings.TrimSpace(album)),
		strconv.Itoa(maxResults),
	}
	return strings.Join(parts, "|")
}
