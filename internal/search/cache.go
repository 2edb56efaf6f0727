// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
)

// cacheKey hashes the full parameter tuple for a search call, matching
// the "in-process LRU cache keyed by the full parameter tuple"
// requirement; sha256 keeps keys fixed-length regardless of query text.
func cacheKey(scope, q string, page, limit int, options string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%s", scope, q, page, limit, options)
	return hex.EncodeToString(h.Sum(nil))
}

func (o *Orchestrator) getCached(key string) ([]byte, bool) {
	v, ok := o.localCache.Get(key)
	if !ok {
		return nil, false
	}
	return v, true
}

func (o *Orchestrator) putCached(ctx context.Context, key string, scope string, payload []byte) {
	o.localCache.Add(key, payload)
	if err := o.store.PutSearchCacheEntry(ctx, &entitystore.SearchCacheEntry{
		CacheKey: key,
		Payload:  payload,
		Context:  scope,
	}); err != nil {
		o.log.Warn().Err(err).Str("scope", scope).Msg("persist search cache entry failed")
	}
}

// getPersisted falls back to the persistent table when the in-process
// cache missed (e.g. after a restart), honoring the separate 1h TTL.
func (o *Orchestrator) getPersisted(ctx context.Context, key string) ([]byte, bool) {
	entry, err := o.store.GetSearchCacheEntry(ctx, key)
	if err != nil {
		return nil, false
	}
	if time.Since(entry.UpdatedAt) > o.cfg.PersistCacheTTL {
		return nil, false
	}
	return entry.Payload, true
}

func marshalResponse(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (o *Orchestrator) lookupCache(ctx context.Context, scope, key string, out any) bool {
	if raw, ok := o.getCached(key); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			metrics.RecordSearchCacheResult(scope, true)
			return true
		}
	}
	if raw, ok := o.getPersisted(ctx, key); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			o.localCache.Add(key, raw)
			metrics.RecordSearchCacheResult(scope, true)
			return true
		}
	}
	metrics.RecordSearchCacheResult(scope, false)
	return false
}
