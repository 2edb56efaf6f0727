// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package spotify is the Spotify-shaped metadata provider client (C2).
// Token acquisition uses the OAuth2 client-credentials grant via
// golang.org/x/oauth2/clientcredentials, which lazily fetches and
// transparently refreshes the bearer token on expiry — the Go-idiomatic
// replacement for original_source/app/core/spotify.py's hand-rolled
// base64-Basic-auth token exchange and re-acquire-on-401 logic.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers"
	"github.com/melodex/core/internal/providers/breaker"
)

const providerName = "spotify"

// maxResponseBodySize bounds how much of a provider response is read
// into memory, grounded on the teacher's readBodyForError cap.
const maxResponseBodySize = 4 << 20

// Client is the Spotify-shaped metadata provider client.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *breaker.Breaker[[]byte]
}

// New builds a Client from configuration. The returned http.Client
// automatically exchanges and refreshes an OAuth2 token per request.
func New(cfg config.SpotifyConfig) *Client {
	oauthCfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     "https://accounts.spotify.com/api/token",
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.spotify.com/v1"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	httpClient := oauthCfg.Client(context.Background())
	httpClient.Timeout = timeout

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		cb:      breaker.New[[]byte](providerName),
	}
}

func (c *Client) get(ctx context.Context, operation, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	reqURL := c.baseURL + endpoint
	if params != nil {
		reqURL += "?" + params.Encode()
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
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

	outcome := "success"
	if err != nil {
		outcome = classifyOutcome(err)
	}
	metrics.RecordProviderRequest(providerName, operation, outcome, time.Since(start))
	return body, err
}

func classifyOutcome(err error) string {
	switch {
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

// SearchArtists searches for artists by name.
func (c *Client) SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error) {
	params := url.Values{"q": {query}, "type": {"artist"}, "limit": {fmt.Sprint(limit)}}
	body, err := c.get(ctx, "search_artists", "/search", params)
	if err != nil {
		return nil, err
	}
	var out searchArtistsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("spotify: decode search_artists: %w", err)
	}
	return out.Artists.Items, nil
}

// GetArtist fetches an artist by provider id.
func (c *Client) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	body, err := c.get(ctx, "get_artist", "/artists/"+artistID, nil)
	if err != nil {
		return nil, err
	}
	var out Artist
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("spotify: decode get_artist: %w", err)
	}
	return &out, nil
}

// GetArtistAlbums lists albums for an artist. groups is a comma-joined
// subset of album,single,compilation,appears_on. fetchAll paginates
// through every result page instead of stopping at the first.
func (c *Client) GetArtistAlbums(ctx context.Context, artistID string, groups []string, fetchAll bool) ([]Album, error) {
	return fetchAllPages(ctx, c, "get_artist_albums", fmt.Sprintf("/artists/%s/albums", artistID), url.Values{
		"include_groups": {strings.Join(groups, ",")},
	}, fetchAll)
}

// GetAlbum fetches an album by provider id.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	body, err := c.get(ctx, "get_album", "/albums/"+albumID, nil)
	if err != nil {
		return nil, err
	}
	var out Album
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("spotify: decode get_album: %w", err)
	}
	return &out, nil
}

// GetAlbumTracks lists tracks on an album.
func (c *Client) GetAlbumTracks(ctx context.Context, albumID string, fetchAll bool) ([]Track, error) {
	return fetchAllPages(ctx, c, "get_album_tracks", fmt.Sprintf("/albums/%s/tracks", albumID), nil, fetchAll)
}

// SearchTracks searches for tracks by name.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	params := url.Values{"q": {query}, "type": {"track"}, "limit": {fmt.Sprint(limit)}}
	body, err := c.get(ctx, "search_tracks", "/search", params)
	if err != nil {
		return nil, err
	}
	var out struct {
		Tracks pagedItems[Track] `json:"tracks"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("spotify: decode search_tracks: %w", err)
	}
	return out.Tracks.Items, nil
}

// GetRecommendations returns tracks (plus deduplicated artists) from a
// seed set, mirroring get_recommendations's {"tracks", "artists"} shape.
func (c *Client) GetRecommendations(ctx context.Context, seedArtists, seedTracks, seedGenres []string, limit int) (*Recommendations, error) {
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if len(seedArtists) > 0 {
		params.Set("seed_artists", strings.Join(seedArtists, ","))
	}
	if len(seedTracks) > 0 {
		params.Set("seed_tracks", strings.Join(seedTracks, ","))
	}
	if len(seedGenres) > 0 {
		params.Set("seed_genres", strings.Join(seedGenres, ","))
	}

	body, err := c.get(ctx, "get_recommendations", "/recommendations", params)
	if err != nil {
		return nil, err
	}
	var out recommendationsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("spotify: decode get_recommendations: %w", err)
	}

	seen := make(map[string]struct{})
	artists := make([]Artist, 0)
	for _, t := range out.Tracks {
		for _, a := range t.Artists {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			artists = append(artists, a)
		}
	}
	return &Recommendations{Tracks: out.Tracks, Artists: artists}, nil
}

func fetchAllPages[T any](ctx context.Context, c *Client, operation, endpoint string, params url.Values, fetchAll bool) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", "50")
	offset := 0
	var all []T
	for {
		params.Set("offset", fmt.Sprint(offset))
		body, err := c.get(ctx, operation, endpoint, params)
		if err != nil {
			return all, err
		}
		var page pagedItems[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return all, fmt.Errorf("spotify: decode %s: %w", operation, err)
		}
		all = append(all, page.Items...)
		if !fetchAll || len(page.Items) == 0 || len(page.Items) < 50 {
			return all, nil
		}
		offset += len(page.Items)
	}
}
