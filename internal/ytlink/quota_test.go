// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package ytlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/config"
)

func TestFallbackQuotaEnforcesDailyLimit(t *testing.T) {
	q := newFallbackQuota(config.YtdlpConfig{FallbackEnabled: true, DailyLimit: 2, MinIntervalSecs: time.Millisecond})

	require.True(t, q.canRequest())
	q.increment()
	require.True(t, q.canRequest())
	q.increment()
	require.False(t, q.canRequest())

	total, limit, remaining := q.usage()
	require.Equal(t, 2, total)
	require.Equal(t, 2, limit)
	require.Equal(t, 0, remaining)
}

func TestFallbackQuotaResetsAfterWindowElapses(t *testing.T) {
	q := newFallbackQuota(config.YtdlpConfig{FallbackEnabled: true, DailyLimit: 1, MinIntervalSecs: time.Millisecond})
	q.increment()
	require.False(t, q.canRequest())

	q.windowFrom = q.windowFrom.AddDate(0, 0, -2)
	require.True(t, q.canRequest())
}

func TestFallbackQuotaEnabledOverride(t *testing.T) {
	q := newFallbackQuota(config.YtdlpConfig{FallbackEnabled: false})
	require.False(t, q.enabled())

	q.setEnabled(true)
	require.True(t, q.enabled())
}

func TestLastResetAnchorRollsBackBeforeAnchorHour(t *testing.T) {
	before := time.Date(2026, 1, 10, 1, 0, 0, 0, time.UTC)
	anchor := lastResetAnchor(before)
	require.Equal(t, 9, anchor.Day())
	require.Equal(t, fallbackAnchorHour, anchor.Hour())
}
