// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"context"
	"time"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/lastfm"
)

// dailySeedBatch caps how many tracked artists get a seed re-expansion
// per run. Favorites live with the external frontend collaborator
// (catalog.FavoriteChecker only answers per-id IsFavorited checks, it
// cannot enumerate); melodex substitutes its full tracked-artist set,
// sampled by popularity, for the original's "favorited by any user"
// selection. See DESIGN.md.
const dailySeedBatch = 25

// DailyRefresh is the Background Loops component (C8) that re-expands
// each tracked artist's neighborhood and opportunistically fills gaps
// in missing bio/genre metadata. Grounded on
// original_source/app/core/maintenance.py's daily_refresh_loop.
type DailyRefresh struct {
	store    *entitystore.Store
	writer   *catalog.Writer
	expander *expander.Expander
	lastfm   *lastfm.Client
	interval time.Duration
}

// NewDailyRefresh constructs the loop from its entitystore, catalog
// writer, artist expander, and Last.fm client.
func NewDailyRefresh(store *entitystore.Store, writer *catalog.Writer, exp *expander.Expander, lf *lastfm.Client) *DailyRefresh {
	return &DailyRefresh{
		store:    store,
		writer:   writer,
		expander: exp,
		lastfm:   lf,
		interval: 24 * time.Hour,
	}
}

// String identifies the service for supervisor logging.
func (d *DailyRefresh) String() string { return "daily-refresh-loop" }

// Serve runs the sweep every interval until ctx is canceled.
func (d *DailyRefresh) Serve(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *DailyRefresh) runOnce(ctx context.Context) {
	start := time.Now()
	outcome := "ok"

	seeds, err := d.store.ListArtistsByUpdatedAt(ctx, dailySeedBatch)
	if err != nil {
		outcome = "error"
		metrics.RecordLoopRun("daily_refresh", outcome, time.Since(start))
		return
	}
	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		if seed.ProviderID == "" {
			continue
		}
		d.expander.ExpandFromSeed(ctx, seed.ProviderID)
	}

	d.fillMissingMetadata(ctx)

	metrics.RecordLoopRun("daily_refresh", outcome, time.Since(start))
}

// fillMissingMetadata scans for artists missing bio or genres and
// opportunistically fills them from Last.fm, reporting gauge counts in
// place of the original's file-based data quality report.
func (d *DailyRefresh) fillMissingMetadata(ctx context.Context) {
	all, err := d.store.ListAllArtists(ctx)
	if err != nil {
		return
	}

	var missingBio, missingGenres, missingImage int
	for _, a := range all {
		if a.BioSummary == "" && a.BioText == "" {
			missingBio++
		}
		if len(a.Genres) == 0 {
			missingGenres++
		}
		if a.ImageRef == "" {
			missingImage++
		}

		if ctx.Err() != nil {
			continue
		}
		if a.BioSummary == "" && a.BioText == "" && d.lastfm != nil {
			if info, err := d.lastfm.GetArtistInfo(ctx, a.Name); err == nil && (info.Summary != "" || info.Content != "") {
				a.BioSummary = info.Summary
				a.BioText = info.Content
				if _, err := d.writer.SaveArtist(ctx, a); err == nil {
					missingBio--
				}
			}
		}
	}

	metrics.SetArtistsMissingField("bio", missingBio)
	metrics.SetArtistsMissingField("genres", missingGenres)
	metrics.SetArtistsMissingField("image", missingImage)
}
