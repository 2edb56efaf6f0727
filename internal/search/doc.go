// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package search implements the Search Orchestrator (C9): the
// request-path state machine that resolves a query against the local
// catalog first, falls back to an external provider fanout, normalizes
// and deduplicates the results, and opportunistically persists what it
// saw. Grounded on original_source/app/api/search.py's
// orchestrated_search/artist_profile/tracks_quick shape.
package search
