// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package ytlink

import (
	"context"
	"sync"
	"time"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/providers/ratelimit"
)

// fallbackAnchorHour matches the hour the API client anchors its own
// daily window at (internal/providers/youtube's default
// QuotaAnchorHour). original_source/app/core/youtube.py resets both
// counters off the same _get_last_reset_anchor helper; that helper is
// unexported in the youtube package, so fallbackQuota reimplements the
// identical anchor arithmetic rather than reaching across the package
// boundary for it.
const fallbackAnchorHour = 4

// fallbackQuota tracks the command-line extractor's independent daily
// request budget and minimum inter-request interval, mirroring
// _ytdlp_request_count/_ytdlp_daily_limit/_ytdlp_min_interval_seconds
// and their _maybe_reset_ytdlp_counter/_ytdlp_throttle/
// _ytdlp_can_request methods. is_ytdlp_enabled/set_ytdlp_enabled's
// runtime on/off override is preserved as enabledOverride.
type fallbackQuota struct {
	mu sync.Mutex

	dailyLimit      int
	count           int
	windowFrom      time.Time
	defaultEnabled  bool
	enabledOverride *bool

	gate *ratelimit.Gate
}

func newFallbackQuota(cfg config.YtdlpConfig) *fallbackQuota {
	dailyLimit := cfg.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 50
	}
	minInterval := cfg.MinIntervalSecs
	if minInterval <= 0 {
		minInterval = 3 * time.Second
	}
	return &fallbackQuota{
		dailyLimit:     dailyLimit,
		windowFrom:     lastResetAnchor(time.Now()),
		defaultEnabled: cfg.FallbackEnabled,
		gate:           ratelimit.NewGate(minInterval),
	}
}

func lastResetAnchor(now time.Time) time.Time {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), fallbackAnchorHour, 0, 0, 0, now.Location())
	if now.Before(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor
}

func (q *fallbackQuota) maybeReset(now time.Time) {
	next := q.windowFrom.AddDate(0, 0, 1)
	if now.Before(next) {
		return
	}
	for !now.Before(next) {
		q.windowFrom = next
		next = next.AddDate(0, 0, 1)
	}
	q.count = 0
}

// canRequest reports whether the daily budget still has room.
func (q *fallbackQuota) canRequest() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	return q.count < q.dailyLimit
}

// increment records one fallback request against today's budget.
func (q *fallbackQuota) increment() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	q.count++
}

// enabled reports whether the fallback path is currently switched on,
// honoring a runtime override set via setEnabled over the configured
// default.
func (q *fallbackQuota) enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enabledOverride != nil {
		return *q.enabledOverride
	}
	return q.defaultEnabled
}

// setEnabled applies a runtime on/off override, mirroring
// set_ytdlp_enabled.
func (q *fallbackQuota) setEnabled(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabledOverride = &enabled
}

// usage reports today's request count, the configured daily limit, and
// the remaining budget, mirroring get_ytdlp_usage.
func (q *fallbackQuota) usage() (requestsTotal, requestsLimit, remaining int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	remaining = q.dailyLimit - q.count
	if remaining < 0 {
		remaining = 0
	}
	return q.count, q.dailyLimit, remaining
}

// wait blocks until the minimum inter-request interval has elapsed.
func (q *fallbackQuota) wait(ctx context.Context) error {
	return q.gate.Wait(ctx)
}
