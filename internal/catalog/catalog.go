// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package catalog implements the Catalog Writer (C4): the single path
// through which Artist/Album/Track/YouTubeLink/Alias rows are created
// and mutated. Every write is idempotent and safe under concurrent
// callers: on entry it locates the row by provider id, falls back to a
// normalized-name merge, and on a residual unique-constraint conflict
// re-reads and re-applies rather than failing the caller.
//
// Grounded on original_source/app/crud.py's save_artist/save_album/
// save_track contract (provider-id lookup -> normalized-name fallback
// -> flush -> on IntegrityError rollback+reread+reapply -> refresh
// aliases -> stamp timestamps), re-expressed on top of
// internal/entitystore's own conflict-recovering Upsert* methods
// instead of re-implementing the retry loop here.
package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
)

// FavoriteChecker reports whether a local entity id is referenced by a
// user favorite. The Entity Store's data model (spec §3) has no
// Favorite table of its own, so protected-deletion enforcement is
// deferred to whatever favorites representation the caller holds;
// Writer calls through this interface rather than assuming one exists.
type FavoriteChecker interface {
	IsFavorited(ctx context.Context, entityKind string, entityLocalID int64) (bool, error)
}

// noFavorites is used when the caller has no favorites concept wired
// up yet; nothing is ever protected.
type noFavorites struct{}

func (noFavorites) IsFavorited(context.Context, string, int64) (bool, error) { return false, nil }

// Writer is the Catalog Writer. It wraps an entitystore.Store with
// alias refresh and protected-deletion checks.
type Writer struct {
	store     *entitystore.Store
	favorites FavoriteChecker
	log       zerolog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithFavoriteChecker wires a FavoriteChecker so artist deletion can
// refuse when a favorite references the row.
func WithFavoriteChecker(fc FavoriteChecker) Option {
	return func(w *Writer) { w.favorites = fc }
}

// New builds a Writer over an already-open entity store.
func New(store *entitystore.Store, log zerolog.Logger, opts ...Option) *Writer {
	w := &Writer{store: store, favorites: noFavorites{}, log: log.With().Str("component", "catalog").Logger()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) timeWrite(operation string, start time.Time) {
	metrics.RecordEntityStoreQuery(operation, time.Since(start))
}
