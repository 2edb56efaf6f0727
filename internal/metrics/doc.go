// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

/*
Package metrics provides Prometheus metrics for melodex's search,
provider, and background loop subsystems.

# Overview

The package groups metrics by component:

  - Search Orchestrator (C9): resolution counts/latency, result cache
    hit/miss, opportunistic persistence queue depth
  - Provider Clients (C2): per-provider request outcome/latency, quota
    remaining, circuit breaker state and trip counts
  - YouTube Link Resolver (C7): link status outcomes, resolution latency
    by path (API/ytdlp fallback/cache), search cache hit/miss, fallback
    invocation reasons
  - Background Loops (C8): run outcome/duration per loop, entities
    refreshed, chart entries ingested/matched
  - Entity Store (C1): query duration, upsert conflict retries, alias
    similarity fallback count
  - API: request counts/latency, rate limit rejections

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format via the
default registry that promauto registers into:

	curl http://localhost:8787/metrics

# Usage

Record functions wrap the raw collectors so call sites never touch
label cardinality directly:

	start := time.Now()
	result, err := provider.SearchTrack(ctx, query)
	metrics.RecordProviderRequest("spotify", "search_track", outcomeFor(err), time.Since(start))

# Cardinality

Label values are drawn from small, bounded sets (provider names, loop
names, entity types, chart identifiers) fixed at startup — never from
user input or free-form strings — to keep series counts predictable.
*/
package metrics
