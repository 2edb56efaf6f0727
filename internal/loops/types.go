// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"time"
)

// chartSource identifies the single external chart provider melodex
// tracks. Grounded on maintenance.py's "billboard" chart_source.
const chartSource = "billboard"

// ChartFetcher fetches one chart's ranked entries for a given
// Saturday-aligned date. The HTML scraping itself is an out-of-scope
// collaborator (spec's Non-goals name the chart-ingestion process as
// external) — melodex only calls through this interface, mirroring how
// ytlink.Extractor composes against the command-line extractor.
type ChartFetcher interface {
	FetchChartEntries(ctx context.Context, chart string, chartDate time.Time) ([]ChartEntry, error)
}

// ChartEntry is one raw ranked row as scraped, before any local
// artist/track matching.
type ChartEntry struct {
	Rank   int
	Title  string
	Artist string
}

// alignChartDate rolls input back to the most recent Saturday,
// mirroring _align_chart_date (Billboard charts publish on Saturdays).
func alignChartDate(t time.Time) time.Time {
	const targetWeekday = time.Saturday
	daysBack := (int(t.Weekday()) - int(targetWeekday) + 7) % 7
	return t.AddDate(0, 0, -daysBack).Truncate(24 * time.Hour)
}

// chartStartDate resolves the backfill horizon for a chart: an explicit
// configured start date if set, else latestChartDate minus the
// configured number of years. Mirrors _chart_start_date, minus the
// original's Global-200-specific hardcoded anchor date (generalized
// into the single configured BackfillStartDate, documented in
// DESIGN.md as a deliberate simplification).
func chartStartDate(backfillStartDate string, backfillYears int, latestChartDate time.Time) time.Time {
	if backfillStartDate != "" {
		if parsed, err := time.Parse("2006-01-02", backfillStartDate); err == nil {
			return parsed
		}
	}
	years := backfillYears
	if years <= 0 {
		years = 1
	}
	return latestChartDate.AddDate(-years, 0, 0)
}
