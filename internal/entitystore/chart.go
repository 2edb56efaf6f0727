// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// InsertChartEntries bulk-inserts raw chart observations, skipping rows
// that already exist for (source, chart, chart_date, rank) — the chart
// scraper re-runs over already-scanned weeks are idempotent by design.
func (s *Store) InsertChartEntries(ctx context.Context, entries []ChartEntryRaw) (inserted int, err error) {
	if len(entries) == 0 {
		return 0, nil
	}
	stmt, err := s.conn.PrepareContext(ctx,
		`INSERT INTO chart_entries_raw (source, chart, chart_date, rank, title, artist)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, chart, chart_date, rank) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("entitystore: prepare chart entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		res, err := stmt.ExecContext(ctx, e.Source, e.Chart, e.ChartDate, e.Rank, e.Title, e.Artist)
		if err != nil {
			return inserted, fmt.Errorf("entitystore: insert chart entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// ListUnmatchedChartEntries returns raw chart entries for (source,
// chart) at or after since, for the chart matcher loop to re-apply
// against the catalog. The matcher recomputes each track's full
// TrackChartStats row from this set on every run (UpsertTrackChartStats
// is a plain replace, not an incremental merge), so this intentionally
// returns every entry in range rather than tracking a matched/unmatched
// flag per row.
func (s *Store) ListUnmatchedChartEntries(ctx context.Context, source, chart string, since time.Time, limit int) ([]ChartEntryRaw, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT cer.id, cer.source, cer.chart, cer.chart_date, cer.rank, cer.title, cer.artist
		 FROM chart_entries_raw cer
		 WHERE cer.source = ? AND cer.chart = ? AND cer.chart_date >= ?
		 ORDER BY cer.chart_date ASC, cer.rank ASC
		 LIMIT ?`,
		source, chart, since, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list unmatched chart entries: %w", err)
	}
	defer rows.Close()

	var out []ChartEntryRaw
	for rows.Next() {
		var e ChartEntryRaw
		if err := rows.Scan(&e.ID, &e.Source, &e.Chart, &e.ChartDate, &e.Rank, &e.Title, &e.Artist); err != nil {
			return nil, fmt.Errorf("entitystore: scan chart entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertTrackChartStats writes the derived per-track chart rollup. The
// caller (C8's chart matcher) recomputes the whole row from raw
// entries; this is a plain replace, not an incremental merge.
func (s *Store) UpsertTrackChartStats(ctx context.Context, stats *TrackChartStats) error {
	query := `INSERT INTO track_chart_stats (
		track_id, source, chart, best_position, weeks_on_chart, weeks_at_one, weeks_top5, weeks_top10,
		first_chart_date, last_chart_date
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (track_id, source, chart) DO UPDATE SET
		best_position = EXCLUDED.best_position,
		weeks_on_chart = EXCLUDED.weeks_on_chart,
		weeks_at_one = EXCLUDED.weeks_at_one,
		weeks_top5 = EXCLUDED.weeks_top5,
		weeks_top10 = EXCLUDED.weeks_top10,
		first_chart_date = EXCLUDED.first_chart_date,
		last_chart_date = EXCLUDED.last_chart_date`

	_, err := s.conn.ExecContext(ctx, query,
		stats.TrackID, stats.Source, stats.Chart, stats.BestPosition, stats.WeeksOnChart,
		stats.WeeksAtOne, stats.WeeksTop5, stats.WeeksTop10, stats.FirstChartDate, stats.LastChartDate)
	if err != nil {
		return fmt.Errorf("entitystore: upsert track chart stats: %w", err)
	}
	return nil
}

// GetChartScanState returns the scraper's backfill cursor for a chart,
// or a zero-value state (not an error) if the chart has never been scanned.
func (s *Store) GetChartScanState(ctx context.Context, source, chart string) (*ChartScanState, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT source, chart, last_scanned_date, backfill_complete FROM chart_scan_state WHERE source = ? AND chart = ?`,
		source, chart)

	var st ChartScanState
	var lastScanned sql.NullTime
	err := row.Scan(&st.Source, &st.Chart, &lastScanned, &st.BackfillComplete)
	if err == sql.ErrNoRows {
		return &ChartScanState{Source: source, Chart: chart}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan chart scan state: %w", err)
	}
	if lastScanned.Valid {
		st.LastScannedDate = lastScanned.Time
	}
	return &st, nil
}

// TrackChartStatsRow pairs a chart rollup with the track's provider id,
// so a caller driven by external (Spotify) ids never has to resolve
// internal row ids itself.
type TrackChartStatsRow struct {
	TrackProviderID string
	Stats           TrackChartStats
}

// ListTrackChartStatsByProviderIDs looks up every chart rollup row for
// the given Spotify track ids, across all (source, chart) pairs. Used
// by the chart-stats request endpoint; an id with no chart presence is
// simply absent from the result rather than reported as an error.
func (s *Store) ListTrackChartStatsByProviderIDs(ctx context.Context, providerIDs []string) ([]TrackChartStatsRow, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(providerIDs))
	args := make([]interface{}, len(providerIDs))
	for i, id := range providerIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT t.provider_id, tcs.track_id, tcs.source, tcs.chart, tcs.best_position,
		       tcs.weeks_on_chart, tcs.weeks_at_one, tcs.weeks_top5, tcs.weeks_top10,
		       tcs.first_chart_date, tcs.last_chart_date
		FROM track_chart_stats tcs
		JOIN tracks t ON t.id = tcs.track_id
		WHERE t.provider_id IN (%s)
		ORDER BY t.provider_id, tcs.best_position ASC`, strings.Join(placeholders, ","))

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list track chart stats by provider ids: %w", err)
	}
	defer rows.Close()

	var out []TrackChartStatsRow
	for rows.Next() {
		var r TrackChartStatsRow
		if err := rows.Scan(&r.TrackProviderID, &r.Stats.TrackID, &r.Stats.Source, &r.Stats.Chart,
			&r.Stats.BestPosition, &r.Stats.WeeksOnChart, &r.Stats.WeeksAtOne, &r.Stats.WeeksTop5,
			&r.Stats.WeeksTop10, &r.Stats.FirstChartDate, &r.Stats.LastChartDate); err != nil {
			return nil, fmt.Errorf("entitystore: scan track chart stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTrackChartStatsByTrackIDs is ListTrackChartStatsByProviderIDs'
// counterpart for callers holding internal track row ids.
func (s *Store) ListTrackChartStatsByTrackIDs(ctx context.Context, trackIDs []int64) ([]TrackChartStatsRow, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(trackIDs))
	args := make([]interface{}, len(trackIDs))
	for i, id := range trackIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT t.provider_id, tcs.track_id, tcs.source, tcs.chart, tcs.best_position,
		       tcs.weeks_on_chart, tcs.weeks_at_one, tcs.weeks_top5, tcs.weeks_top10,
		       tcs.first_chart_date, tcs.last_chart_date
		FROM track_chart_stats tcs
		JOIN tracks t ON t.id = tcs.track_id
		WHERE tcs.track_id IN (%s)
		ORDER BY t.provider_id, tcs.best_position ASC`, strings.Join(placeholders, ","))

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list track chart stats by track ids: %w", err)
	}
	defer rows.Close()

	var out []TrackChartStatsRow
	for rows.Next() {
		var r TrackChartStatsRow
		if err := rows.Scan(&r.TrackProviderID, &r.Stats.TrackID, &r.Stats.Source, &r.Stats.Chart,
			&r.Stats.BestPosition, &r.Stats.WeeksOnChart, &r.Stats.WeeksAtOne, &r.Stats.WeeksTop5,
			&r.Stats.WeeksTop10, &r.Stats.FirstChartDate, &r.Stats.LastChartDate); err != nil {
			return nil, fmt.Errorf("entitystore: scan track chart stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}


// UpsertChartScanState advances the scraper cursor for a chart.
func (s *Store) UpsertChartScanState(ctx context.Context, st *ChartScanState) error {
	query := `INSERT INTO chart_scan_state (source, chart, last_scanned_date, backfill_complete)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, chart) DO UPDATE SET
			last_scanned_date = EXCLUDED.last_scanned_date,
			backfill_complete = EXCLUDED.backfill_complete`
	_, err := s.conn.ExecContext(ctx, query, st.Source, st.Chart, nullableTime(st.LastScannedDate), st.BackfillComplete)
	if err != nil {
		return fmt.Errorf("entitystore: upsert chart scan state: %w", err)
	}
	return nil
}
