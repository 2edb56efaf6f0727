// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package lastfm is the Last.fm-shaped stats/similarity provider client
// (C2). Grounded on original_source/app/core/lastfm.py's get_track_info
// (query-string API-key auth, JSON response unwrapped from its "track"
// envelope); get_artist_info/get_similar_artists/get_top_artists_by_tag
// are supplied beyond the original's single method because spec.md
// §4.2 names all four as exposed operations, following the same
// query-param/envelope idiom and the real Last.fm API's method names
// (artist.getInfo, artist.getSimilar, tag.getTopArtists).
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers"
	"github.com/melodex/core/internal/providers/breaker"
	"github.com/melodex/core/internal/providers/ratelimit"
)

const providerName = "lastfm"
const maxResponseBodySize = 4 << 20

// Client is the Last.fm-shaped stats/similarity provider client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	gate    *ratelimit.Gate
	cb      *breaker.Breaker[[]byte]
}

// New builds a Client from configuration.
func New(cfg config.LastfmConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://ws.audioscrobbler.com/2.0/"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	minGap := cfg.MinRequestGap
	if minGap <= 0 {
		minGap = time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		gate:    ratelimit.NewGate(minGap),
		cb:      breaker.New[[]byte](providerName),
	}
}

func (c *Client) call(ctx context.Context, method string, params url.Values) ([]byte, error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, providers.ErrTransient
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, providers.Classify(providerName, resp.StatusCode, false, fmt.Errorf("unexpected status"))
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	})

	metrics.RecordProviderRequest(providerName, method, outcomeOf(err), time.Since(start))
	return body, err
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

// GetTrackInfo returns listener/playcount stats and top tags for a
// (artist, track) pair.
func (c *Client) GetTrackInfo(ctx context.Context, artist, track string) (*TrackInfo, error) {
	body, err := c.call(ctx, "track.getInfo", url.Values{"artist": {artist}, "track": {track}})
	if err != nil {
		return nil, err
	}
	var out trackInfoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("lastfm: decode track.getInfo: %w", err)
	}
	return &TrackInfo{
		Listeners: parseInt64(out.Track.Listeners),
		PlayCount: parseInt64(out.Track.PlayCount),
		Tags:      out.Track.TopTags.Tag,
	}, nil
}

// GetArtistInfo returns bio and stats for an artist by name.
func (c *Client) GetArtistInfo(ctx context.Context, name string) (*ArtistInfo, error) {
	body, err := c.call(ctx, "artist.getInfo", url.Values{"artist": {name}})
	if err != nil {
		return nil, err
	}
	var out artistInfoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("lastfm: decode artist.getInfo: %w", err)
	}
	return &ArtistInfo{
		Name:      out.Artist.Name,
		Listeners: parseInt64(out.Artist.Stats.Listeners),
		PlayCount: parseInt64(out.Artist.Stats.PlayCount),
		Summary:   out.Artist.Bio.Summary,
		Content:   out.Artist.Bio.Content,
		Tags:      out.Artist.Tags.Tag,
	}, nil
}

// GetSimilarArtists returns up to limit artists similar to name.
func (c *Client) GetSimilarArtists(ctx context.Context, name string, limit int) ([]SimilarArtist, error) {
	body, err := c.call(ctx, "artist.getSimilar", url.Values{"artist": {name}, "limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}
	var out similarArtistsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("lastfm: decode artist.getSimilar: %w", err)
	}
	return out.SimilarArtists.Artist, nil
}

// GetTopArtistsByTag returns a page of artists most associated with tag.
func (c *Client) GetTopArtistsByTag(ctx context.Context, tag string, limit, page int) ([]TopArtist, error) {
	body, err := c.call(ctx, "tag.getTopArtists", url.Values{
		"tag": {tag}, "limit": {strconv.Itoa(limit)}, "page": {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	var out topArtistsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("lastfm: decode tag.getTopArtists: %w", err)
	}
	return out.TopArtists.Artist, nil
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
