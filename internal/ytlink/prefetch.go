// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package ytlink

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
)

// quotaCooldown is how long the prefetch loop pauses after the
// resolver reports a quota-driven error, mirroring
// youtube_prefetch_loop's 403/429 handling ("Cooling down 15 minutes").
const quotaCooldown = 15 * time.Minute

// idleWait is how long the loop sleeps when it finds nothing to do,
// mirroring youtube_prefetch_loop's `await asyncio.sleep(60 * 30)`.
const idleWait = 30 * time.Minute

// Prefetch is the background loop that keeps the YouTube link cache
// populated: it repeatedly pulls the next batch of tracks with a
// missing or stale link, resolves them one at a time with the
// resolver's own pacing between items, and pauses the whole loop on
// repeated quota errors. Grounded on
// original_source/app/core/youtube_prefetch.py's youtube_prefetch_loop
// and internal/supervisor/services/websocket_service.go's
// Serve/String suture.Service shape.
type Prefetch struct {
	resolver    *Resolver
	store       *entitystore.Store
	cfg         config.EntitiesConfig
	minInterval time.Duration
	batchSize   int
	log         zerolog.Logger
}

// NewPrefetch builds a Prefetch loop.
func NewPrefetch(resolver *Resolver, store *entitystore.Store, cfg config.EntitiesConfig, minInterval time.Duration, log zerolog.Logger) *Prefetch {
	batch := cfg.LibraryRefreshBatch
	if batch <= 0 {
		batch = 30
	}
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	return &Prefetch{
		resolver:    resolver,
		store:       store,
		cfg:         cfg,
		minInterval: minInterval,
		batchSize:   batch,
		log:         log.With().Str("component", "ytlink-prefetch").Logger(),
	}
}

// String implements fmt.Stringer for suture's logging.
func (p *Prefetch) String() string { return "ytlink-prefetch" }

// Serve implements suture.Service, returning ctx.Err() on shutdown.
func (p *Prefetch) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		links, err := p.store.ListYouTubeLinksNeedingRetry(ctx, p.cfg.LinkErrorCooldown, p.cfg.LinkNotFoundCooldown, p.batchSize)
		if err != nil {
			p.log.Warn().Err(err).Msg("could not list links needing retry")
			if !sleepCtx(ctx, idleWait) {
				return ctx.Err()
			}
			continue
		}
		if len(links) == 0 {
			if !sleepCtx(ctx, idleWait) {
				return ctx.Err()
			}
			continue
		}

		quotaHit := false
		for _, link := range links {
			track, err := p.store.GetTrackByProviderID(ctx, link.TrackProviderID)
			if err != nil {
				continue
			}
			artist, err := p.store.GetArtistByID(ctx, track.ArtistID)
			if err != nil || artist == nil {
				continue
			}

			var albumName string
			if track.AlbumID.Valid {
				if al, err := p.store.GetAlbumByID(ctx, track.AlbumID.Int64); err == nil && al != nil {
					albumName = al.Name
				}
			}

			p.log.Info().Str("artist", artist.Name).Str("track", track.Name).Msg("resolving youtube link")
			resolved, err := p.resolver.Resolve(ctx, track.ProviderID, artist.Name, track.Name, albumName)
			if err != nil {
				p.log.Warn().Err(err).Str("track", track.Name).Msg("resolve failed")
			} else if resolved.Status == entitystore.LinkStatusError {
				quotaHit = true
			}

			if !sleepCtx(ctx, p.minInterval) {
				return ctx.Err()
			}
			if quotaHit {
				break
			}
		}

		if quotaHit {
			p.log.Warn().Msg("resolver hit repeated errors, cooling down")
			if !sleepCtx(ctx, quotaCooldown) {
				return ctx.Err()
			}
		}
	}
}

// sleepCtx sleeps for d, returning false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
