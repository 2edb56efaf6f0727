// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package youtube

import (
	"sync"
	"time"
)

// quotaCounter tracks API requests against a daily cap that resets at
// a fixed local hour, matching original_source/app/core/youtube.py's
// _get_last_reset_anchor/_maybe_reset_counter pair.
type quotaCounter struct {
	mu         sync.Mutex
	anchorHour int
	dailyCap   int
	count      int
	windowFrom time.Time
}

func newQuotaCounter(anchorHour, dailyCap int) *quotaCounter {
	if anchorHour < 0 || anchorHour > 23 {
		anchorHour = 4
	}
	if dailyCap <= 0 {
		dailyCap = 80
	}
	q := &quotaCounter{anchorHour: anchorHour, dailyCap: dailyCap}
	q.windowFrom = q.lastResetAnchor(time.Now())
	return q
}

func (q *quotaCounter) lastResetAnchor(now time.Time) time.Time {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), q.anchorHour, 0, 0, 0, now.Location())
	if now.Before(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor
}

func (q *quotaCounter) maybeReset(now time.Time) {
	nextReset := q.windowFrom.AddDate(0, 0, 1)
	if now.Before(nextReset) {
		return
	}
	for !now.Before(nextReset) {
		q.windowFrom = nextReset
		nextReset = q.windowFrom.AddDate(0, 0, 1)
	}
	q.count = 0
}

// Exhausted reports whether today's request budget has been spent.
func (q *quotaCounter) Exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	return q.count >= q.dailyCap
}

// Increment records one request against today's budget.
func (q *quotaCounter) Increment() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	q.count++
}

// Remaining returns how many requests are left in today's budget.
func (q *quotaCounter) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset(time.Now())
	remaining := q.dailyCap - q.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// keyRing rotates between one or more API keys when a quota error is
// seen, matching _rotate_api_key's round-robin behavior.
type keyRing struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

func newKeyRing(keys ...string) *keyRing {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	return &keyRing{keys: filtered}
}

func (r *keyRing) current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.idx]
}

// rotate advances to the next key and reports whether rotation
// happened (false when there is only one key to rotate between).
func (r *keyRing) rotate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) <= 1 {
		return false
	}
	r.idx = (r.idx + 1) % len(r.keys)
	return true
}

func (r *keyRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
