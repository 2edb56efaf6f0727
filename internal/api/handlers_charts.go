// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/melodex/core/internal/entitystore"
)

// chartStatsItem is one row of GET /tracks/chart-stats's response.
type chartStatsItem struct {
	SpotifyTrackID string `json:"spotify_track_id"`
	Source         string `json:"source"`
	Chart          string `json:"chart"`
	BestPosition   int    `json:"best_position"`
	WeeksOnChart   int    `json:"weeks_on_chart"`
	WeeksAtOne     int    `json:"weeks_at_one"`
	WeeksTop5      int    `json:"weeks_top5"`
	WeeksTop10     int    `json:"weeks_top10"`
}

func chartRowToItem(row entitystore.TrackChartStatsRow) chartStatsItem {
	return chartStatsItem{
		SpotifyTrackID: row.TrackProviderID,
		Source:         row.Stats.Source,
		Chart:          row.Stats.Chart,
		BestPosition:   row.Stats.BestPosition,
		WeeksOnChart:   row.Stats.WeeksOnChart,
		WeeksAtOne:     row.Stats.WeeksAtOne,
		WeeksTop5:      row.Stats.WeeksTop5,
		WeeksTop10:     row.Stats.WeeksTop10,
	}
}

// ChartStats handles GET /tracks/chart-stats?spotify_ids|track_ids.
func (h *Handler) ChartStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	spotifyIDs := parseCommaSeparated(r.URL.Query().Get("spotify_ids"))
	trackIDs := parseCommaSeparatedIDs(r.URL.Query().Get("track_ids"))

	if len(spotifyIDs) == 0 && len(trackIDs) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "spotify_ids or track_ids is required", nil)
		return
	}

	var rows []entitystore.TrackChartStatsRow
	if len(spotifyIDs) > 0 {
		r1, err := h.store.ListTrackChartStatsByProviderIDs(r.Context(), spotifyIDs)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load chart stats", err)
			return
		}
		rows = append(rows, r1...)
	}
	if len(trackIDs) > 0 {
		r2, err := h.store.ListTrackChartStatsByTrackIDs(r.Context(), trackIDs)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load chart stats", err)
			return
		}
		rows = append(rows, r2...)
	}

	items := make([]chartStatsItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, chartRowToItem(row))
	}
	respondSuccess(w, map[string]interface{}{"items": items}, false, time.Since(start))
}

// parseCommaSeparatedIDs parses a comma-separated list of int64 track
// ids, silently skipping any token that doesn't parse — an unknown id
// simply contributes no rows rather than failing the whole request.
func parseCommaSeparatedIDs(value string) []int64 {
	parts := parseCommaSeparated(value)
	if len(parts) == 0 {
		return nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}
