// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/curated"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/search"
	"github.com/melodex/core/internal/ytlink"
)

// Handler holds every collaborator the request-side endpoints call
// into. It is built once per process and its methods are safe for
// concurrent use, since each of its dependencies already is.
type Handler struct {
	store        *entitystore.Store
	orchestrator *search.Orchestrator
	curated      *curated.Service
	resolver     *ytlink.Resolver
	startTime    time.Time
	log          zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(store *entitystore.Store, orchestrator *search.Orchestrator, curatedSvc *curated.Service, resolver *ytlink.Resolver, log zerolog.Logger) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		curated:      curatedSvc,
		resolver:     resolver,
		startTime:    time.Now(),
		log:          log.With().Str("component", "api").Logger(),
	}
}

// Health reports process liveness and entity store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil
	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}
	respondSuccess(w, map[string]interface{}{
		"status":           status,
		"store_connected":  dbConnected,
		"uptime_seconds":   time.Since(h.startTime).Seconds(),
	}, false, 0)
}

// CuratedList handles GET /curated/{list}, serving one of the six
// named curated lists (internal/curated). Not one of spec.md §6.3's
// eight enumerated endpoints, but the request-side surface the
// curated lists cache (C10) otherwise has no consumer for — see
// DESIGN.md.
func (h *Handler) CuratedList(w http.ResponseWriter, r *http.Request) {
	list := chi.URLParam(r, "list")
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	start := time.Now()
	res, err := h.curated.GetList(r.Context(), list, forceRefresh)
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNKNOWN_LIST", "unknown curated list", err)
		return
	}
	respondSuccess(w, res, res.Cached, time.Since(start))
}
