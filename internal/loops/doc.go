// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package loops implements the Background Loops (C8): five
// suture-supervised maintenance sweeps that keep the catalog current
// without a user request driving them. Grounded on
// original_source/app/core/maintenance.py's daily_refresh_loop,
// genre_backfill_loop, full_library_refresh_loop, chart_scrape_loop and
// chart_match_loop, and original_source/app/core/genre_backfill.py's
// tag-derivation helpers.
package loops
