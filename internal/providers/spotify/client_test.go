// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/providers/breaker"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &Client{
		baseURL: srv.URL,
		http:    &http.Client{Timeout: 5 * time.Second},
		cb:      breaker.New[[]byte](providerName),
	}
}

func TestSearchArtists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artists":{"items":[{"id":"1","name":"Shakira","popularity":80}]}}`))
	})

	artists, err := c.SearchArtists(context.Background(), "shakira", 5)
	require.NoError(t, err)
	require.Len(t, artists, 1)
	require.Equal(t, "Shakira", artists[0].Name)
}

func TestGetArtistNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetArtist(context.Background(), "missing")
	require.Error(t, err)
}

func TestGetRecommendationsDeduplicatesArtists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":[
			{"id":"t1","name":"A","artists":[{"id":"a1","name":"Artist One"}]},
			{"id":"t2","name":"B","artists":[{"id":"a1","name":"Artist One"},{"id":"a2","name":"Artist Two"}]}
		]}`))
	})

	recs, err := c.GetRecommendations(context.Background(), []string{"a1"}, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, recs.Tracks, 2)
	require.Len(t, recs.Artists, 2)
}
