// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package breaker wraps a provider client call with a gobreaker circuit
// breaker, keyed by provider name, reporting state transitions through
// internal/metrics. Grounded on the teacher's
// internal/sync/circuit_breaker.go wrapper-and-cast idiom, generalized
// with Go generics instead of the teacher's interface{}-and-type-assert
// castResult helper, since melodex's three provider clients each return
// a single typed result per call rather than sharing one dispatch table.
package breaker

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/melodex/core/internal/metrics"
)

// Breaker wraps calls to one named provider.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New builds a Breaker for a provider. Trips after 60% failures with at
// least 10 requests in the measurement window, same thresholds as the
// teacher's Tautulli circuit breaker.
func New[T any](name string) *Breaker[T] {
	b := &Breaker[T]{name: name}
	b.cb = gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.RecordCircuitBreakerStateChange(name, stateToString(to))
		},
	})
	return b
}

// Execute runs fn through the circuit breaker.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
