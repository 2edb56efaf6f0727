// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/melodex/core/internal/middleware"
)

// Router wires a Handler's methods onto chi routes, grounded on the
// teacher's chi_router.go's SetupChi. melodex has no multi-tenant
// auth layer to gate behind (§9's no-user-accounts design, see
// DESIGN.md), so every route below runs under one global middleware
// stack rather than the teacher's per-group auth/rate-limit tiers.
type Router struct {
	handler *Handler
}

// NewRouter builds a Router around handler.
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// chiAdapt lifts an http.HandlerFunc-shaped middleware (melodex's
// internal/middleware package, teacher-grounded) onto chi's
// func(http.Handler) http.Handler shape.
func chiAdapt(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the full chi handler tree for the eight endpoints
// spec.md §6.3 names, plus a curated-lists surface and health/metrics
// endpoints melodex needs to run as a standalone service.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiAdapt(middleware.RequestID))
	r.Use(chiAdapt(middleware.PrometheusMetrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(120, time.Minute))

	h := router.handler

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/search", func(r chi.Router) {
		r.Get("/orchestrated", h.OrchestratedSearch)
		r.Get("/artist-profile", h.ArtistProfile)
		r.Get("/tracks-quick", h.TracksQuick)
		r.Get("/metrics", h.SearchMetrics)
	})

	r.Route("/youtube", func(r chi.Router) {
		r.Post("/track/{track_id}/refresh", h.RefreshTrack)
		r.Post("/links", h.BulkLinkStatus)
		r.Post("/album/{album_id}/prefetch", h.PrefetchAlbum)
	})

	r.Get("/tracks/chart-stats", h.ChartStats)

	r.Get("/curated/{list}", h.CuratedList)

	return r
}
