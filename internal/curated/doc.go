// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package curated implements the Curated Lists Cache (C10): six named
// playlists, each backed by an Entity Store (C1) query, refreshed on a
// 5-minute TTL rather than recomputed on every request.
//
// Grounded on original_source/app/services/smart_lists.py and
// lists_cache.py — the original keys its cache by (list, user) behind
// a multi-user favorites system. melodex has no user accounts and no
// Favorite table (see internal/catalog.FavoriteChecker and DESIGN.md),
// so the per-user dimension is dropped: a list name is the whole cache
// key, and every generator that originally read a favorited set reads
// the library's own signals instead (resolved YouTube links, chart
// presence, library addition date, top genres by popularity).
package curated
