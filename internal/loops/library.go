// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"time"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/freshness"
	"github.com/melodex/core/internal/metrics"
)

// LibraryRefresh is the Background Loops component (C8) that round-robins
// every artist through a refresh-then-discover pass, unlike the
// freshness manager's bulk sweep which only checks for new content on
// artists it actually refreshed. Grounded on
// original_source/app/core/maintenance.py's full_library_refresh_loop.
type LibraryRefresh struct {
	store    *entitystore.Store
	manager  *freshness.Manager
	interval time.Duration
	batch    int
}

// NewLibraryRefresh constructs the loop from its entitystore and
// freshness manager.
func NewLibraryRefresh(store *entitystore.Store, manager *freshness.Manager, batch int) *LibraryRefresh {
	return &LibraryRefresh{
		store:    store,
		manager:  manager,
		interval: 6 * time.Hour,
		batch:    batch,
	}
}

// String identifies the service for supervisor logging.
func (l *LibraryRefresh) String() string { return "library-refresh-loop" }

// Serve runs the sweep every interval until ctx is canceled.
func (l *LibraryRefresh) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

func (l *LibraryRefresh) runOnce(ctx context.Context) {
	start := time.Now()
	outcome := "ok"

	artists, err := l.store.ListArtistsByUpdatedAt(ctx, l.batch)
	if err != nil {
		outcome = "error"
		metrics.RecordLoopRun("library_refresh", outcome, time.Since(start))
		return
	}

	for _, artist := range artists {
		if ctx.Err() != nil {
			break
		}
		if artist.ProviderID == "" {
			continue
		}
		if l.manager.ShouldRefreshArtist(artist) {
			l.manager.RefreshArtistData(ctx, artist.ProviderID)
		}
		// Unconditional, unlike BulkRefreshStaleArtists: every artist in
		// this round-robin batch gets a new-content check regardless of
		// whether its metadata was stale enough to refresh.
		l.manager.CheckForNewArtistContent(ctx, artist.ID, artist.ProviderID)
	}

	metrics.RecordLoopRun("library_refresh", outcome, time.Since(start))
}
