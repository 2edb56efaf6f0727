// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"net/http"
	"time"

	"github.com/melodex/core/internal/metrics"
)

const (
	defaultSearchPage  = 1
	defaultSearchLimit = 20
)

// OrchestratedSearch handles GET /search/orchestrated?q&page&limit.
func (h *Handler) OrchestratedSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page := getIntParam(r, "page", defaultSearchPage)
	limit := getIntParam(r, "limit", defaultSearchLimit)
	if q == "" {
		respondSuccess(w, emptyOrchestratedResult(q, page, limit), false, 0)
		return
	}

	start := time.Now()
	resp, err := h.orchestrator.OrchestratedSearch(r.Context(), q, page, limit, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SEARCH_FAILED", "search failed", err)
		return
	}
	respondSuccess(w, resp, false, time.Since(start))
}

// emptyOrchestratedResult is returned for an empty query without
// contacting the orchestrator at all, per spec.md §8's boundary case
// "Empty query -> orchestrator returns empty sections and does not
// contact providers." Echoes the full §6.3 contract shape (query,
// page, limit, has_more_artists, has_more_lastfm, main, artists,
// related, tracks, lastfm_top) with every section empty, matching
// search.New's Response field set.
func emptyOrchestratedResult(q string, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		"source":           "local",
		"query":            q,
		"page":             page,
		"limit":            limit,
		"has_more_artists": false,
		"has_more_lastfm":  false,
		"main":             nil,
		"artists":          []interface{}{},
		"related":          []interface{}{},
		"tracks":           []interface{}{},
		"lastfm_top":       []interface{}{},
	}
}

// ArtistProfile handles GET /search/artist-profile?q&similar_limit&min_followers.
func (h *Handler) ArtistProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "q is required", nil)
		return
	}

	start := time.Now()
	resp, err := h.orchestrator.ArtistProfile(r.Context(), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SEARCH_FAILED", "artist profile lookup failed", err)
		return
	}
	respondSuccess(w, resp, false, time.Since(start))
}

// TracksQuick handles GET /search/tracks-quick?q&limit.
func (h *Handler) TracksQuick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondSuccess(w, map[string]interface{}{"source": "local", "query": q, "tracks": []interface{}{}}, false, 0)
		return
	}
	limit := getIntParam(r, "limit", defaultSearchLimit)

	start := time.Now()
	resp, err := h.orchestrator.TracksQuick(r.Context(), q, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SEARCH_FAILED", "tracks-quick lookup failed", err)
		return
	}
	respondSuccess(w, resp, false, time.Since(start))
}

// SearchMetrics handles GET /search/metrics: a lightweight local/external
// resolution snapshot, independent of the Prometheus series scraped at
// the process's metrics port.
func (h *Handler) SearchMetrics(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, metrics.GetSearchSnapshot(), false, 0)
}
