// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAlignChartDateRollsBackToSaturday(t *testing.T) {
	wed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) // Wednesday
	got := alignChartDate(wed)
	require.Equal(t, time.Saturday, got.Weekday())
	require.Equal(t, time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestAlignChartDateAlreadySaturday(t *testing.T) {
	sat := time.Date(2026, 7, 25, 18, 30, 0, 0, time.UTC)
	got := alignChartDate(sat)
	require.Equal(t, time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestChartStartDateExplicit(t *testing.T) {
	latest := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)
	got := chartStartDate("2020-01-01", 1, latest)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestChartStartDateFallsBackToYears(t *testing.T) {
	latest := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)
	got := chartStartDate("", 2, latest)
	require.Equal(t, time.Date(2024, 7, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestChartStartDateInvalidExplicitFallsBack(t *testing.T) {
	latest := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)
	got := chartStartDate("not-a-date", 1, latest)
	require.Equal(t, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), got)
}
