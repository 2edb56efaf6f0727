// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package youtube is the YouTube Data API v3 provider client (C2),
// feeding the YouTube Link Resolver (C7). Grounded on
// original_source/app/core/youtube.py's YouTubeClient: a rotating
// ring of API keys, a minimum-gap rate gate, a daily request budget
// anchored at a configurable local hour, and music-video filtering by
// token-overlap/title-similarity scoring (see scoring.go). Downloading
// and streaming audio (download_audio/stream_audio_to_device) belong
// to a Media Fetcher collaborator outside this client's scope.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers"
	"github.com/melodex/core/internal/providers/breaker"
	"github.com/melodex/core/internal/providers/ratelimit"
)

const providerName = "youtube"
const maxResponseBodySize = 4 << 20

// ErrNoAPIKey is returned when no API key is configured and a caller
// did not fall back to the yt-dlp extractor path.
var ErrNoAPIKey = errors.New("youtube: no api key configured")

// Client is the YouTube Data API v3 provider client.
type Client struct {
	baseURL string
	http    *http.Client
	keys    *keyRing
	gate    *ratelimit.Gate
	quota   *quotaCounter
	cb      *breaker.Breaker[[]byte]
}

// New builds a Client from configuration.
func New(cfg config.YouTubeConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	minGap := cfg.MinRequestGap
	if minGap <= 0 {
		minGap = 5 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		keys:    newKeyRing(cfg.APIKey, cfg.APIKey2),
		gate:    ratelimit.NewGate(minGap),
		quota:   newQuotaCounter(cfg.QuotaAnchorHour, cfg.DailyRequestCap),
		cb:      breaker.New[[]byte](providerName),
	}
}

// QuotaRemaining returns how many requests remain in today's budget.
func (c *Client) QuotaRemaining() int {
	return c.quota.Remaining()
}

// HasAPIKey reports whether at least one API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.keys.len() > 0
}

// get issues a GET against endpoint, rotating API keys on a quota
// error and stopping once the daily budget or key ring is exhausted,
// mirroring _api_get's attempt loop.
func (c *Client) get(ctx context.Context, operation, endpoint string, params url.Values) ([]byte, error) {
	if !c.HasAPIKey() {
		return nil, ErrNoAPIKey
	}
	if c.quota.Exhausted() {
		return nil, providers.ErrQuotaExceeded
	}

	attempts := c.keys.len()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		withKey := url.Values{}
		for k, v := range params {
			withKey[k] = v
		}
		withKey.Set("key", c.keys.current())
		c.quota.Increment()

		body, err := c.cb.Execute(func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+withKey.Encode(), http.NoBody)
			if err != nil {
				return nil, err
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, providers.ErrTransient
			}
			defer resp.Body.Close()

			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
			if readErr != nil {
				return nil, readErr
			}
			if resp.StatusCode == http.StatusOK {
				return raw, nil
			}
			return raw, providers.Classify(providerName, resp.StatusCode, isQuotaError(raw), fmt.Errorf("unexpected status"))
		})

		metrics.RecordProviderRequest(providerName, operation, outcomeOf(err), time.Since(start))
		metrics.SetProviderQuotaRemaining(providerName, c.quota.Remaining())

		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, providers.ErrQuotaExceeded) {
			return body, err
		}
		if !c.keys.rotate() {
			return body, err
		}
	}
	return nil, lastErr
}

func isQuotaError(body []byte) bool {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Error.Errors) == 0 {
		return false
	}
	reason := parsed.Error.Errors[0].Reason
	return reason == "quotaExceeded" || reason == "dailyLimitExceeded"
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, providers.ErrNotFound):
		return "not_found"
	case errors.Is(err, providers.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, providers.ErrTransient):
		return "transient"
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	default:
		return "error"
	}
}

// SearchVideos searches the music category (videoCategoryId 10) for
// query, mirroring search_videos.
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int) ([]Video, error) {
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 50
	}
	params := url.Values{
		"part":            {"snippet"},
		"q":               {query},
		"type":            {"video"},
		"videoCategoryId": {"10"},
		"maxResults":      {strconv.Itoa(maxResults)},
		"order":           {"relevance"},
	}

	body, err := c.get(ctx, "search_videos", "search", params)
	if err != nil {
		return nil, err
	}
	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("youtube: decode search: %w", err)
	}

	videos := make([]Video, 0, len(out.Items))
	for _, item := range out.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos, nil
}

// GetVideoDetails fetches statistics/contentDetails for a video id,
// mirroring get_video_details.
func (c *Client) GetVideoDetails(ctx context.Context, videoID string) (*VideoDetails, error) {
	params := url.Values{"part": {"snippet,statistics,contentDetails"}, "id": {videoID}}
	body, err := c.get(ctx, "get_video_details", "videos", params)
	if err != nil {
		return nil, err
	}
	var out videosResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("youtube: decode videos: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, providers.ErrNotFound
	}
	item := out.Items[0]

	return &VideoDetails{
		Video: Video{
			VideoID:      item.ID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			URL:          "https://www.youtube.com/watch?v=" + item.ID,
		},
		ViewCount:  parseInt64(item.Statistics.ViewCount),
		LikeCount:  parseInt64(item.Statistics.LikeCount),
		Duration:   item.ContentDetails.Duration,
		Definition: item.ContentDetails.Definition,
		Caption:    item.ContentDetails.Caption,
	}, nil
}

// SearchMusicVideos runs the artist/track/album query strategy used by
// search_music_videos and filters results through FilterMusicVideos.
func (c *Client) SearchMusicVideos(ctx context.Context, artist, track, album string, maxResults int) ([]Video, error) {
	queries := buildQueries(artist, track, album, maxResults)
	fetchCount := maxResults
	if fetchCount < 5 {
		fetchCount = 5
	}

	for _, q := range queries {
		videos, err := c.SearchVideos(ctx, q, fetchCount)
		if err != nil {
			if errors.Is(err, providers.ErrQuotaExceeded) || errors.Is(err, ErrNoAPIKey) {
				return nil, err
			}
			continue
		}
		filtered := FilterMusicVideos(videos, artist, track)
		if len(filtered) == 0 {
			continue
		}
		if len(filtered) > maxResults {
			filtered = filtered[:maxResults]
		}
		return filtered, nil
	}
	return nil, nil
}

func buildQueries(artist, track, album string, maxResults int) []string {
	var queries []string
	if album != "" {
		queries = append(queries, fmt.Sprintf("%s %s %s official video", artist, track, album))
	}
	queries = append(queries, fmt.Sprintf("%s %s official video", artist, track))
	if maxResults > 1 {
		queries = append(queries, strings.TrimSpace(artist+" "+track))
	}
	return queries
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// ParseISO8601Duration parses a YouTube contentDetails duration like
// "PT4M13S" into seconds, mirroring get_video_duration_seconds's
// hand-rolled parse.
func ParseISO8601Duration(d string) (int, bool) {
	if !strings.HasPrefix(d, "PT") {
		return 0, false
	}
	rest := d[2:]
	seconds := 0

	if idx := strings.Index(rest, "H"); idx >= 0 {
		hours, err := strconv.Atoi(rest[:idx])
		if err != nil {
			return 0, false
		}
		seconds += hours * 3600
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, "M"); idx >= 0 {
		minutes, err := strconv.Atoi(rest[:idx])
		if err != nil {
			return 0, false
		}
		seconds += minutes * 60
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, "S"); idx >= 0 {
		secs, err := strconv.Atoi(rest[:idx])
		if err != nil {
			return 0, false
		}
		seconds += secs
	}
	return seconds, true
}
