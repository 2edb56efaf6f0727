// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/normalize"
)

// ChartScraper is the Background Loops component (C8) that walks each
// configured chart backward (backfill) or forward (steady state) one
// Saturday-aligned week at a time, persisting raw rows through the
// entitystore and running the matcher synchronously for the same
// dates. Grounded on original_source/app/core/maintenance.py's
// chart_scrape_loop.
type ChartScraper struct {
	store   *entitystore.Store
	fetcher ChartFetcher
	matcher *ChartMatcher
	cfg     config.ChartConfig
}

// NewChartScraper constructs the loop from its entitystore, a
// ChartFetcher collaborator, the matcher to invoke per scanned week,
// and chart config.
func NewChartScraper(store *entitystore.Store, fetcher ChartFetcher, matcher *ChartMatcher, cfg config.ChartConfig) *ChartScraper {
	return &ChartScraper{store: store, fetcher: fetcher, matcher: matcher, cfg: cfg}
}

// String identifies the service for supervisor logging.
func (c *ChartScraper) String() string { return "chart-scraper-loop" }

// Serve runs the sweep every RefreshInterval until ctx is canceled.
func (c *ChartScraper) Serve(ctx context.Context) error {
	interval := c.cfg.RefreshInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *ChartScraper) runOnce(ctx context.Context) {
	start := time.Now()
	outcome := "ok"

	for _, chart := range c.cfg.Charts {
		if err := c.scrapeChart(ctx, chart); err != nil {
			outcome = "error"
		}
		if ctx.Err() != nil {
			break
		}
	}

	metrics.RecordLoopRun("chart_scraper", outcome, time.Since(start))
}

func (c *ChartScraper) scrapeChart(ctx context.Context, chart string) error {
	state, err := c.store.GetChartScanState(ctx, chartSource, chart)
	if err != nil {
		return err
	}

	latest := alignChartDate(time.Now().UTC())
	maxWeeks := c.cfg.MaxWeeksPerRun
	if maxWeeks <= 0 {
		maxWeeks = 4
	}

	dates := c.pendingDates(state, latest, maxWeeks)
	for _, date := range dates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		entries, err := c.fetcher.FetchChartEntries(ctx, chart, date)
		if err != nil {
			return err
		}

		raw := make([]entitystore.ChartEntryRaw, 0, len(entries))
		for _, e := range entries {
			if c.cfg.MaxRank > 0 && e.Rank > c.cfg.MaxRank {
				continue
			}
			raw = append(raw, entitystore.ChartEntryRaw{
				Source:    chartSource,
				Chart:     chart,
				ChartDate: date,
				Rank:      e.Rank,
				Title:     e.Title,
				Artist:    e.Artist,
			})
		}
		inserted, err := c.store.InsertChartEntries(ctx, raw)
		if err != nil {
			return err
		}
		metrics.RecordChartIngested(chart, inserted)

		state = c.advanceState(state, date, latest)
		if err := c.store.UpsertChartScanState(ctx, state); err != nil {
			return err
		}

		if c.matcher != nil {
			c.matcher.matchDate(ctx, chart, date)
		}

		c.sleepBetweenRequests(ctx)
	}
	return nil
}

// pendingDates computes the ordered list of Saturday-aligned dates to
// scan this run: if backfill isn't complete, it walks backward from the
// last scanned date (or latest, on first run) toward the chart's
// configured start date; once backfill completes it walks forward from
// the last scanned date to latest. Capped at maxWeeks per run, mirroring
// chart_scrape_loop's per-run week budget.
func (c *ChartScraper) pendingDates(state *entitystore.ChartScanState, latest time.Time, maxWeeks int) []time.Time {
	var dates []time.Time

	if !state.BackfillComplete {
		cursor := state.LastScannedDate
		if cursor.IsZero() {
			cursor = latest
		} else {
			cursor = cursor.AddDate(0, 0, -7)
		}
		start := chartStartDate(c.cfg.BackfillStartDate, c.cfg.BackfillYears, latest)
		for len(dates) < maxWeeks && !cursor.Before(start) {
			dates = append(dates, cursor)
			cursor = cursor.AddDate(0, 0, -7)
		}
		return dates
	}

	cursor := state.LastScannedDate.AddDate(0, 0, 7)
	for len(dates) < maxWeeks && !cursor.After(latest) {
		dates = append(dates, cursor)
		cursor = cursor.AddDate(0, 0, 7)
	}
	return dates
}

// advanceState updates the scan cursor after successfully scraping
// date, flipping backfillComplete once the cursor reaches the
// configured start date (for a backward walk) or latest (forward).
func (c *ChartScraper) advanceState(state *entitystore.ChartScanState, date, latest time.Time) *entitystore.ChartScanState {
	next := *state
	if !state.BackfillComplete {
		start := chartStartDate(c.cfg.BackfillStartDate, c.cfg.BackfillYears, latest)
		if date.Before(start) || date.Equal(start) {
			next.BackfillComplete = true
		}
		if next.LastScannedDate.IsZero() || date.Before(next.LastScannedDate) {
			next.LastScannedDate = date
		}
		return &next
	}
	if date.After(next.LastScannedDate) {
		next.LastScannedDate = date
	}
	return &next
}

func (c *ChartScraper) sleepBetweenRequests(ctx context.Context) {
	minDelay := c.cfg.RequestMinDelay
	maxDelay := c.cfg.RequestMaxDelay
	if maxDelay <= minDelay {
		return
	}
	spread := maxDelay - minDelay
	delay := minDelay + time.Duration(rand.Int63n(int64(spread)))

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// ChartMatcher is the Background Loops component (C8) that re-joins raw
// chart rows against the current catalog and recomputes each matched
// track's TrackChartStats rollup. Melodex's schema has no per-entry
// matched-state table (unlike the original's TrackChartEntry), so the
// matcher recomputes every track's full stats row from all raw entries
// on every pass rather than merging incrementally — a deliberate
// simplification, since UpsertTrackChartStats is a plain replace. See
// DESIGN.md.
type ChartMatcher struct {
	store *entitystore.Store
	cfg   config.ChartConfig
}

// NewChartMatcher constructs the loop from its entitystore and chart config.
func NewChartMatcher(store *entitystore.Store, cfg config.ChartConfig) *ChartMatcher {
	return &ChartMatcher{store: store, cfg: cfg}
}

// String identifies the service for supervisor logging.
func (m *ChartMatcher) String() string { return "chart-matcher-loop" }

// Serve runs an independent re-match sweep every MatchRefreshInterval,
// covering the scraper's gap between its synchronous per-week matches
// and any catalog changes made since (new artists/tracks arriving
// through search or expansion).
func (m *ChartMatcher) Serve(ctx context.Context) error {
	interval := m.cfg.MatchRefreshInterval
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *ChartMatcher) runOnce(ctx context.Context) {
	start := time.Now()
	outcome := "ok"

	for _, chart := range m.cfg.Charts {
		if ctx.Err() != nil {
			break
		}
		if err := m.rematchChart(ctx, chart); err != nil {
			outcome = "error"
		}
	}

	metrics.RecordLoopRun("chart_matcher", outcome, time.Since(start))
}

// matchDate re-matches a single (chart, date) slice, called
// synchronously by the scraper right after ingesting that week.
func (m *ChartMatcher) matchDate(ctx context.Context, chart string, date time.Time) {
	m.rematchSince(ctx, chart, date)
}

func (m *ChartMatcher) rematchChart(ctx context.Context, chart string) error {
	start := chartStartDate(m.cfg.BackfillStartDate, m.cfg.BackfillYears, alignChartDate(time.Now().UTC()))
	return m.rematchSince(ctx, chart, start)
}

// rematchSince loads every raw entry for chart at or after since,
// groups entries by normalized (artist, title), resolves each group to
// a local track, and recomputes that track's full TrackChartStats row.
func (m *ChartMatcher) rematchSince(ctx context.Context, chart string, since time.Time) error {
	entries, err := m.store.ListUnmatchedChartEntries(ctx, chartSource, chart, since, 100000)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	artists, err := m.store.ListAllArtists(ctx)
	if err != nil {
		return err
	}
	artistByNorm := make(map[string]*entitystore.Artist, len(artists))
	for _, a := range artists {
		artistByNorm[normalize.Normalize(a.Name)] = a
	}

	type trackKey struct {
		trackID int64
	}
	grouped := make(map[trackKey][]entitystore.ChartEntryRaw)
	trackCache := make(map[int64]*entitystore.Track)

	matched := 0
	for _, e := range entries {
		artist, ok := artistByNorm[normalize.Normalize(e.Artist)]
		if !ok {
			continue
		}
		track := m.resolveTrack(ctx, artist.ID, e.Title, trackCache)
		if track == nil {
			continue
		}
		key := trackKey{trackID: track.ID}
		grouped[key] = append(grouped[key], e)
		matched++
	}

	for key, rows := range grouped {
		stats := computeTrackChartStats(key.trackID, chartSource, chart, rows)
		if err := m.store.UpsertTrackChartStats(ctx, stats); err != nil {
			return err
		}
	}

	metrics.RecordChartMatched(chart, matched)
	return nil
}

// resolveTrack finds the local track for artistID whose normalized
// title contains, or is contained by, the normalized chart title —
// mirroring the substring-both-ways matching spec.md calls for.
func (m *ChartMatcher) resolveTrack(ctx context.Context, artistID int64, chartTitle string, cache map[int64]*entitystore.Track) *entitystore.Track {
	normChartTitle := normalize.Normalize(chartTitle)

	tracks, err := m.store.ListTracksByArtist(ctx, artistID, 500)
	if err != nil {
		return nil
	}
	for _, t := range tracks {
		normTrackTitle := normalize.Normalize(t.Name)
		if normTrackTitle == normChartTitle ||
			strings.Contains(normTrackTitle, normChartTitle) ||
			strings.Contains(normChartTitle, normTrackTitle) {
			cache[t.ID] = t
			return t
		}
	}
	return nil
}

// computeTrackChartStats recomputes a track's full chart rollup from
// its matched raw rows, replacing whatever row previously existed.
func computeTrackChartStats(trackID int64, source, chart string, rows []entitystore.ChartEntryRaw) *entitystore.TrackChartStats {
	stats := &entitystore.TrackChartStats{
		TrackID:      trackID,
		Source:       source,
		Chart:        chart,
		BestPosition: rows[0].Rank,
	}
	seenWeeks := make(map[time.Time]bool)
	for _, r := range rows {
		if r.Rank < stats.BestPosition {
			stats.BestPosition = r.Rank
		}
		if !seenWeeks[r.ChartDate] {
			seenWeeks[r.ChartDate] = true
			stats.WeeksOnChart++
			if r.Rank == 1 {
				stats.WeeksAtOne++
			}
			if r.Rank <= 5 {
				stats.WeeksTop5++
			}
			if r.Rank <= 10 {
				stats.WeeksTop10++
			}
		}
		if stats.FirstChartDate.IsZero() || r.ChartDate.Before(stats.FirstChartDate) {
			stats.FirstChartDate = r.ChartDate
		}
		if r.ChartDate.After(stats.LastChartDate) {
			stats.LastChartDate = r.ChartDate
		}
	}
	return stats
}
