// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

var searchTestDBSemaphore = make(chan struct{}, 1)

func setupTestStore(t *testing.T) *entitystore.Store {
	t.Helper()
	searchTestDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-searchTestDBSemaphore })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := entitystore.Open(ctx, entitystore.Config{Path: ":memory:", MaxMemory: "512MB"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSpotifyClient(t *testing.T, handler http.HandlerFunc) *spotify.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return spotify.New(config.SpotifyConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second})
}

func newTestLastfmClient(t *testing.T, handler http.HandlerFunc) *lastfm.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return lastfm.New(config.LastfmConfig{BaseURL: srv.URL, APIKey: "test-key"})
}

func testOrchestrator(t *testing.T, store *entitystore.Store, spotifyClient *spotify.Client, lastfmClient *lastfm.Client) *Orchestrator {
	t.Helper()
	writer := catalog.New(store, zerolog.Nop())
	exp := expander.New(store, writer, spotifyClient, lastfmClient, zerolog.Nop())
	cfg := config.SearchConfig{
		CacheTTL:               60 * time.Second,
		CacheSize:              100,
		PersistCacheTTL:        time.Hour,
		ExternalTrackTimeout:   2 * time.Second,
		ExternalTagTimeout:     2 * time.Second,
		ExternalArtistTimeout:  2 * time.Second,
		ExternalSimilarTimeout: 2 * time.Second,
		ArtistEnrichConcurrent: 4,
		MinFollowerFloor:       0,
		SimilarFollowerFloor:   0,
		AutoExpandCount:        8,
	}
	o, _ := New(store, writer, exp, spotifyClient, lastfmClient, cfg, zerolog.Nop())
	return o
}
