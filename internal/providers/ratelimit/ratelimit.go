// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package ratelimit provides the per-client minimum-inter-request-
// interval gate shared by the three provider clients (C2 §4.2): "one
// async mutex per client enforces a minimum inter-request interval."
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum gap between successive requests. A gap of
// zero (Spotify's default) makes Wait a no-op; the provider relies on
// upstream 429 back-off instead of a self-imposed floor.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate builds a Gate with the given minimum gap between requests.
// A non-positive gap disables limiting entirely.
func NewGate(minGap time.Duration) *Gate {
	if minGap <= 0 {
		return &Gate{}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(minGap), 1)}
}

// Wait blocks until the gate allows the next request, or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
