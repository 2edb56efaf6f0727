// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics for the melodex search/orchestration/ingestion core.
// This package instruments:
// - search resolution (local hit vs external fanout)
// - provider requests (Spotify/Last.fm/YouTube)
// - circuit breaker state per provider
// - YouTube link resolution outcomes and quota
// - background loop activity (freshness, expansion, charts)

// Search Orchestrator Metrics (C9)
var (
	SearchResolutionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_resolution_total",
			Help: "Total number of search resolutions by scope and source",
		},
		[]string{"scope", "source"}, // scope: "track","artist_profile","tracks_quick"; source: "local","external"
	)

	SearchResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_resolution_duration_seconds",
			Help:    "Duration of search resolution in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"scope"},
	)

	SearchCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_hits_total",
			Help: "Total number of search result cache hits",
		},
		[]string{"scope"},
	)

	SearchCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_misses_total",
			Help: "Total number of search result cache misses",
		},
		[]string{"scope"},
	)

	SearchPersistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_persist_queue_depth",
			Help: "Current depth of the opportunistic persistence work queue",
		},
	)

	SearchPersistDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_persist_dropped_total",
			Help: "Total number of opportunistic persistence jobs dropped because the queue was full",
		},
		[]string{"entity_type"},
	)
)

// RecordSearchResolution records a completed search resolution, both
// to the Prometheus series and to the lightweight snapshot counters
// GET /search/metrics reports.
func RecordSearchResolution(scope, source string, duration time.Duration) {
	SearchResolutionTotal.WithLabelValues(scope, source).Inc()
	SearchResolutionDuration.WithLabelValues(scope).Observe(duration.Seconds())
	RecordSearchSnapshot(source)
}

// RecordSearchCacheResult records a cache hit or miss for a search scope.
func RecordSearchCacheResult(scope string, hit bool) {
	if hit {
		SearchCacheHits.WithLabelValues(scope).Inc()
		return
	}
	SearchCacheMisses.WithLabelValues(scope).Inc()
}

// searchSnapshot is a lightweight in-memory counter pair, grounded on
// original_source/app/core/search_metrics.py's get_search_metrics: a
// cheap global resolution count for the `GET /search/metrics` endpoint,
// kept independent of the Prometheus series above (those are for
// scraping; this is for a single small JSON response). The Python
// original keys each bucket per user id; melodex has no user rows, so
// every resolution only ever touches the "global" key.
var searchSnapshot = struct {
	mu       sync.Mutex
	local    int64
	external int64
}{}

// RecordSearchSnapshot increments the lightweight local/external
// resolution snapshot, independent of the Prometheus counters above.
func RecordSearchSnapshot(source string) {
	searchSnapshot.mu.Lock()
	defer searchSnapshot.mu.Unlock()
	if source == "local" {
		searchSnapshot.local++
	} else {
		searchSnapshot.external++
	}
}

// SearchSnapshot is the `GET /search/metrics` response shape, mirroring
// get_search_metrics' {"local": {"global": n}, "external": {"global": n}}.
type SearchSnapshot struct {
	Local    map[string]int64 `json:"local"`
	External map[string]int64 `json:"external"`
}

// GetSearchSnapshot returns a copy of the current local/external
// resolution snapshot.
func GetSearchSnapshot() SearchSnapshot {
	searchSnapshot.mu.Lock()
	defer searchSnapshot.mu.Unlock()
	return SearchSnapshot{
		Local:    map[string]int64{"global": searchSnapshot.local},
		External: map[string]int64{"global": searchSnapshot.external},
	}
}

// Curated Lists Cache Metrics (C10)
var (
	CuratedListGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curated_list_generation_duration_seconds",
			Help:    "Duration of a curated list (re)generation in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"list"},
	)

	CuratedListCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curated_list_cache_hits_total",
			Help: "Total number of curated list cache hits",
		},
		[]string{"list"},
	)

	CuratedListCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curated_list_cache_misses_total",
			Help: "Total number of curated list cache misses",
		},
		[]string{"list"},
	)
)

// RecordCuratedListGeneration records the time spent regenerating a
// curated list.
func RecordCuratedListGeneration(list string, duration time.Duration) {
	CuratedListGenerationDuration.WithLabelValues(list).Observe(duration.Seconds())
}

// RecordCuratedCacheResult records a cache hit or miss for a curated list.
func RecordCuratedCacheResult(list string, hit bool) {
	if hit {
		CuratedListCacheHits.WithLabelValues(list).Inc()
		return
	}
	CuratedListCacheMisses.WithLabelValues(list).Inc()
}

// Provider Client Metrics (C2)
var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of outbound requests per provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: "success","error","timeout","rate_limited"
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of outbound provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	ProviderQuotaRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_quota_remaining",
			Help: "Estimated remaining daily request quota for a provider",
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of times a provider's circuit breaker opened",
		},
		[]string{"provider"},
	)
)

// RecordProviderRequest records the outcome and latency of a provider call.
func RecordProviderRequest(provider, operation, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// SetProviderQuotaRemaining updates the gauge tracking a provider's
// remaining daily request budget.
func SetProviderQuotaRemaining(provider string, remaining int) {
	ProviderQuotaRemaining.WithLabelValues(provider).Set(float64(remaining))
}

// circuitStateValue maps gobreaker's State to the gauge's numeric encoding.
func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordCircuitBreakerStateChange records a provider circuit breaker
// transition, intended to be wired to gobreaker's OnStateChange hook.
func RecordCircuitBreakerStateChange(provider, toState string) {
	CircuitBreakerState.WithLabelValues(provider).Set(circuitStateValue(toState))
	if toState == "open" {
		CircuitBreakerTrips.WithLabelValues(provider).Inc()
	}
}

// YouTube Link Resolver Metrics (C7)
var (
	YTLinkStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytlink_status_total",
			Help: "Total number of YouTube link resolutions by resulting status",
		},
		[]string{"status"}, // "link_found","video_not_found","missing"
	)

	YTLinkResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytlink_resolution_duration_seconds",
			Help:    "Duration of a YouTube link resolution attempt in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"path"}, // "api","ytdlp_fallback","cache"
	)

	YTLinkCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytlink_search_cache_hits_total",
			Help: "Total number of YouTube search result cache hits",
		},
	)

	YTLinkCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytlink_search_cache_misses_total",
			Help: "Total number of YouTube search result cache misses",
		},
	)

	FallbackInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_invocations_total",
			Help: "Total number of ytdlp fallback invocations by reason",
		},
		[]string{"reason"}, // "api_quota_exhausted","api_disabled","no_candidates"
	)
)

// RecordYTLinkResolution records the outcome path and duration of a link
// resolution attempt.
func RecordYTLinkResolution(path, status string, duration time.Duration) {
	YTLinkStatusTotal.WithLabelValues(status).Inc()
	YTLinkResolutionDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordYTLinkCacheResult records a hit or miss against the in-process
// YouTube search cache.
func RecordYTLinkCacheResult(hit bool) {
	if hit {
		YTLinkCacheHits.Inc()
		return
	}
	YTLinkCacheMisses.Inc()
}

// RecordFallbackInvocation records a ytdlp fallback invocation and why
// the API path was skipped.
func RecordFallbackInvocation(reason string) {
	FallbackInvocationsTotal.WithLabelValues(reason).Inc()
}

// Background Loop Metrics (C8)
var (
	LoopRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loop_runs_total",
			Help: "Total number of background loop iterations by loop and outcome",
		},
		[]string{"loop", "outcome"},
	)

	LoopRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loop_run_duration_seconds",
			Help:    "Duration of a single background loop iteration in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"loop"},
	)

	EntitiesRefreshedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entities_refreshed_total",
			Help: "Total number of entities refreshed by the freshness manager",
		},
		[]string{"entity_type"},
	)

	ChartEntriesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_entries_ingested_total",
			Help: "Total number of raw chart entries ingested",
		},
		[]string{"chart"},
	)

	ChartEntriesMatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_entries_matched_total",
			Help: "Total number of chart entries successfully matched to a local track",
		},
		[]string{"chart"},
	)
)

// RecordLoopRun records the outcome and duration of a background loop
// iteration (daily refresh, genre backfill, library refresh, chart
// scraper, chart matcher).
func RecordLoopRun(loop, outcome string, duration time.Duration) {
	LoopRunsTotal.WithLabelValues(loop, outcome).Inc()
	LoopRunDuration.WithLabelValues(loop).Observe(duration.Seconds())
}

// RecordEntityRefreshed records a single entity refresh by the
// freshness manager.
func RecordEntityRefreshed(entityType string) {
	EntitiesRefreshedTotal.WithLabelValues(entityType).Inc()
}

// RecordChartIngested records raw chart entries ingested for a chart.
func RecordChartIngested(chart string, count int) {
	ChartEntriesIngestedTotal.WithLabelValues(chart).Add(float64(count))
}

// RecordChartMatched records chart entries matched to a local track.
func RecordChartMatched(chart string, count int) {
	ChartEntriesMatchedTotal.WithLabelValues(chart).Add(float64(count))
}

// ArtistsMissingField gauges how many artists are currently missing a
// given metadata field, replacing the teacher pack's file-based data
// quality report with a metrics-only pass (no persisted schema).
var ArtistsMissingField = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "artists_missing_field",
		Help: "Number of artists currently missing a given metadata field",
	},
	[]string{"field"}, // "bio","genres","image"
)

// SetArtistsMissingField updates the gauge for one metadata field.
func SetArtistsMissingField(field string, count int) {
	ArtistsMissingField.WithLabelValues(field).Set(float64(count))
}

// Entity Store Metrics (C1)
var (
	EntityStoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "entitystore_query_duration_seconds",
			Help:    "Duration of entity store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EntityStoreConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitystore_conflict_retries_total",
			Help: "Total number of upsert conflict-recovery retries",
		},
		[]string{"entity_type"},
	)

	EntityStoreAliasSimilarityFallback = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entitystore_alias_similarity_fallback_total",
			Help: "Total number of alias lookups that fell back to LIKE matching because the RapidFuzz extension was unavailable",
		},
	)
)

// RecordEntityStoreQuery records the duration of an entity store operation.
func RecordEntityStoreQuery(operation string, duration time.Duration) {
	EntityStoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEntityStoreConflictRetry records an upsert conflict-recovery retry.
func RecordEntityStoreConflictRetry(entityType string) {
	EntityStoreConflictRetries.WithLabelValues(entityType).Inc()
}

// RecordAliasSimilarityFallback records a degraded LIKE-based alias
// lookup taken because the RapidFuzz extension failed to load.
func RecordAliasSimilarityFallback() {
	EntityStoreAliasSimilarityFallback.Inc()
}

// API Endpoint Metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
