// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSearchResolution(t *testing.T) {
	SearchResolutionTotal.Reset()
	RecordSearchResolution("track", "local", 10*time.Millisecond)
	RecordSearchResolution("track", "external", 120*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(SearchResolutionTotal.WithLabelValues("track", "local")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SearchResolutionTotal.WithLabelValues("track", "external")))
}

func TestRecordSearchCacheResult(t *testing.T) {
	SearchCacheHits.Reset()
	SearchCacheMisses.Reset()

	RecordSearchCacheResult("artist_profile", true)
	RecordSearchCacheResult("artist_profile", false)
	RecordSearchCacheResult("artist_profile", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(SearchCacheHits.WithLabelValues("artist_profile")))
	assert.Equal(t, float64(2), testutil.ToFloat64(SearchCacheMisses.WithLabelValues("artist_profile")))
}

func TestRecordProviderRequest(t *testing.T) {
	ProviderRequestsTotal.Reset()
	RecordProviderRequest("spotify", "search_track", "success", 50*time.Millisecond)
	RecordProviderRequest("spotify", "search_track", "timeout", 4*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("spotify", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("spotify", "timeout")))
}

func TestSetProviderQuotaRemaining(t *testing.T) {
	SetProviderQuotaRemaining("youtube", 42)
	assert.Equal(t, float64(42), testutil.ToFloat64(ProviderQuotaRemaining.WithLabelValues("youtube")))
}

func TestRecordCircuitBreakerStateChange(t *testing.T) {
	CircuitBreakerTrips.Reset()

	RecordCircuitBreakerStateChange("lastfm", "closed")
	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("lastfm")))

	RecordCircuitBreakerStateChange("lastfm", "half-open")
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("lastfm")))

	RecordCircuitBreakerStateChange("lastfm", "open")
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("lastfm")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerTrips.WithLabelValues("lastfm")))
}

func TestRecordYTLinkResolution(t *testing.T) {
	YTLinkStatusTotal.Reset()
	RecordYTLinkResolution("api", "link_found", 300*time.Millisecond)
	RecordYTLinkResolution("ytdlp_fallback", "video_not_found", 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(YTLinkStatusTotal.WithLabelValues("link_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(YTLinkStatusTotal.WithLabelValues("video_not_found")))
}

func TestRecordYTLinkCacheResult(t *testing.T) {
	hitsBefore := testutil.ToFloat64(YTLinkCacheHits)
	missesBefore := testutil.ToFloat64(YTLinkCacheMisses)

	RecordYTLinkCacheResult(true)
	RecordYTLinkCacheResult(false)

	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(YTLinkCacheHits))
	assert.Equal(t, missesBefore+1, testutil.ToFloat64(YTLinkCacheMisses))
}

func TestRecordFallbackInvocation(t *testing.T) {
	FallbackInvocationsTotal.Reset()
	RecordFallbackInvocation("api_quota_exhausted")
	assert.Equal(t, float64(1), testutil.ToFloat64(FallbackInvocationsTotal.WithLabelValues("api_quota_exhausted")))
}

func TestRecordLoopRun(t *testing.T) {
	LoopRunsTotal.Reset()
	RecordLoopRun("daily_refresh", "ok", 2*time.Second)
	assert.Equal(t, float64(1), testutil.ToFloat64(LoopRunsTotal.WithLabelValues("daily_refresh", "ok")))
}

func TestRecordEntityAndChartMetrics(t *testing.T) {
	EntitiesRefreshedTotal.Reset()
	ChartEntriesIngestedTotal.Reset()
	ChartEntriesMatchedTotal.Reset()

	RecordEntityRefreshed("artist")
	RecordChartIngested("hot-100", 100)
	RecordChartMatched("hot-100", 87)

	assert.Equal(t, float64(1), testutil.ToFloat64(EntitiesRefreshedTotal.WithLabelValues("artist")))
	assert.Equal(t, float64(100), testutil.ToFloat64(ChartEntriesIngestedTotal.WithLabelValues("hot-100")))
	assert.Equal(t, float64(87), testutil.ToFloat64(ChartEntriesMatchedTotal.WithLabelValues("hot-100")))
}

func TestRecordEntityStoreQueryAndRetry(t *testing.T) {
	EntityStoreConflictRetries.Reset()
	RecordEntityStoreConflictRetry("track")
	assert.Equal(t, float64(1), testutil.ToFloat64(EntityStoreConflictRetries.WithLabelValues("track")))

	before := testutil.ToFloat64(EntityStoreAliasSimilarityFallback)
	RecordAliasSimilarityFallback()
	assert.Equal(t, before+1, testutil.ToFloat64(EntityStoreAliasSimilarityFallback))
}

func TestRecordAPIRequest(t *testing.T) {
	APIRequestsTotal.Reset()
	RecordAPIRequest("GET", "/v1/search/track", "200", 15*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/v1/search/track", "200")))
}
