// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/spotify"
)

const persistQueueCapacity = 256

type persistTaskKind int

const (
	persistSaveArtist persistTaskKind = iota
	persistExpandArtist
)

type persistTask struct {
	kind       persistTaskKind
	artist     spotify.Artist
	providerID string
}

// PersistQueue is the opportunistic persistence work queue spec.md
// §4.9 step 5 calls for: fire-and-forget, never awaited by the request
// handler. It is a suture.Service so it runs as an ordinary background
// service in the supervisor tree (C8's idiom), draining tasks enqueued
// by request-path orchestrator calls.
type PersistQueue struct {
	store    *entitystore.Store
	writer   *catalog.Writer
	expander *expander.Expander
	log      zerolog.Logger
	tasks    chan persistTask
}

func newPersistQueue(store *entitystore.Store, writer *catalog.Writer, exp *expander.Expander, log zerolog.Logger) *PersistQueue {
	return &PersistQueue{
		store:    store,
		writer:   writer,
		expander: exp,
		log:      log,
		tasks:    make(chan persistTask, persistQueueCapacity),
	}
}

func (q *PersistQueue) String() string { return "search.persist_queue" }

func (q *PersistQueue) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			metrics.SearchPersistQueueDepth.Set(float64(len(q.tasks)))
			q.run(ctx, task)
		}
	}
}

func (q *PersistQueue) run(ctx context.Context, task persistTask) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch task.kind {
	case persistSaveArtist:
		a := &entitystore.Artist{
			ProviderID: task.artist.ID,
			Name:       task.artist.Name,
			Genres:     task.artist.Genres,
			Popularity: task.artist.Popularity,
			Followers:  task.artist.Followers.Total,
		}
		if _, err := q.writer.SaveArtist(runCtx, a); err != nil {
			q.log.Debug().Err(err).Str("provider_id", task.providerID).Msg("opportunistic artist save failed")
		}
	case persistExpandArtist:
		if _, err := q.expander.ExpandFromSeed(runCtx, task.providerID); err != nil {
			q.log.Debug().Err(err).Str("provider_id", task.providerID).Msg("opportunistic expansion failed")
		}
	}
}

// enqueueSaveArtist queues every external artist the orchestrator saw,
// per spec.md §4.9 step 5's "for every external artist seen, queue a
// persistence task through C4". Non-blocking: a full queue drops the
// task and records it rather than stalling the request path.
func (q *PersistQueue) enqueueSaveArtist(a spotify.Artist) {
	select {
	case q.tasks <- persistTask{kind: persistSaveArtist, artist: a, providerID: a.ID}:
		metrics.SearchPersistQueueDepth.Set(float64(len(q.tasks)))
	default:
		metrics.SearchPersistDropped.WithLabelValues(entitystore.EntityKindArtist).Inc()
	}
}

// enqueueExpand schedules a full expansion for an artist the caller
// has determined has no local row, capped upstream at AutoExpandCount.
func (q *PersistQueue) enqueueExpand(providerID string) {
	select {
	case q.tasks <- persistTask{kind: persistExpandArtist, providerID: providerID}:
		metrics.SearchPersistQueueDepth.Set(float64(len(q.tasks)))
	default:
		metrics.SearchPersistDropped.WithLabelValues(entitystore.EntityKindArtist).Inc()
	}
}

// hasLocalRow reports whether an external artist already has a local
// row, used to decide whether it is a candidate for full expansion.
func (o *Orchestrator) hasLocalRow(ctx context.Context, providerID string) bool {
	if providerID == "" {
		return false
	}
	_, err := o.store.GetArtistByProviderID(ctx, providerID)
	return err == nil
}
