// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/cache"
	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
)

const (
	scopeOrchestrated = "orchestrated"
	scopeArtist       = "artist_profile"
	scopeTracks       = "tracks_quick"
)

// Orchestrator implements the Search Orchestrator (C9): the
// request-path state machine described in orchestrator.go's package
// doc. It is constructed once per process and is safe for concurrent
// calls from API handlers.
type Orchestrator struct {
	store    *entitystore.Store
	writer   *catalog.Writer
	expander *expander.Expander
	spotify  *spotify.Client
	lastfm   *lastfm.Client
	cfg      config.SearchConfig
	log      zerolog.Logger

	localCache *cache.LRUCache[[]byte]
	persist    *PersistQueue
}

// New builds an Orchestrator. Its returned persist queue must be added
// to the supervisor tree as an ordinary background service (it is a
// suture.Service) so opportunistic persistence actually drains.
func New(store *entitystore.Store, writer *catalog.Writer, exp *expander.Expander,
	spotifyClient *spotify.Client, lastfmClient *lastfm.Client, cfg config.SearchConfig, log zerolog.Logger) (*Orchestrator, *PersistQueue) {

	pq := newPersistQueue(store, writer, exp, log)
	o := &Orchestrator{
		store:      store,
		writer:     writer,
		expander:   exp,
		spotify:    spotifyClient,
		lastfm:     lastfmClient,
		cfg:        cfg,
		log:        log,
		localCache: cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL),
		persist:    pq,
	}
	return o, pq
}

// OrchestratedSearch is orchestrated_search(q, page, limit, options).
func (o *Orchestrator) OrchestratedSearch(ctx context.Context, q string, page, limit int, options string) (*Response, error) {
	start := time.Now()
	key := cacheKey(scopeOrchestrated, q, page, limit, options)

	var cached Response
	if o.lookupCache(ctx, scopeOrchestrated, key, &cached) {
		return &cached, nil
	}

	localArtists, err := o.resolveLocalArtists(ctx, q)
	if err != nil {
		o.log.Debug().Err(err).Msg("local artist resolution failed")
	}
	localTracks, err := o.resolveLocalTracks(ctx, q)
	if err != nil {
		o.log.Debug().Err(err).Msg("local track resolution failed")
	}

	if len(localArtists) > 0 || len(localTracks) > 0 {
		resp := o.buildLocalResponse(ctx, q, page, limit, localArtists, localTracks)
		metrics.RecordSearchResolution(scopeOrchestrated, "local", time.Since(start))
		o.putCached(ctx, key, scopeOrchestrated, marshalResponse(resp))
		return resp, nil
	}

	fanout := o.runExternalFanout(ctx, q, true, true)

	resp := o.buildExternalResponse(q, page, limit, fanout)
	o.schedulePersistence(ctx, fanout)

	metrics.RecordSearchResolution(scopeOrchestrated, "external", time.Since(start))
	o.putCached(ctx, key, scopeOrchestrated, marshalResponse(resp))
	return resp, nil
}

// ArtistProfile is artist_profile(q): the same local-first shape,
// targeting a single artist (main + similar).
func (o *Orchestrator) ArtistProfile(ctx context.Context, q string) (*ArtistProfileResponse, error) {
	start := time.Now()
	key := cacheKey(scopeArtist, q, 0, 0, "")

	var cached ArtistProfileResponse
	if o.lookupCache(ctx, scopeArtist, key, &cached) {
		return &cached, nil
	}

	localArtists, err := o.resolveLocalArtists(ctx, q)
	if err != nil {
		o.log.Debug().Err(err).Msg("local artist resolution failed")
	}
	if len(localArtists) > 0 {
		main := localArtists[0].artist
		resp := &ArtistProfileResponse{
			Source:  "local",
			Main:    ptrCard(o.buildLocalArtistCard(ctx, main)),
			Similar: o.relatedLocalArtists(ctx, main),
		}
		metrics.RecordSearchResolution(scopeArtist, "local", time.Since(start))
		o.putCached(ctx, key, scopeArtist, marshalResponse(resp))
		return resp, nil
	}

	hits, err := o.spotify.SearchArtists(ctx, q, 1)
	resp := &ArtistProfileResponse{Source: "external"}
	if err == nil && len(hits) > 0 {
		main := hits[0]
		info := o.lastfmArtistInfo(ctx, main.Name)
		card := convertArtist(main, info)
		resp.Main = &card

		similar := o.fanoutSimilarArtists(ctx, main.Name)
		for _, a := range similar {
			sInfo := o.lastfmArtistInfo(ctx, a.Name)
			resp.Similar = append(resp.Similar, convertArtist(a, sInfo))
		}
		o.schedulePersistence(ctx, fanoutResult{taggedArtists: []spotify.Artist{main}, similarArtists: similar})
	}

	metrics.RecordSearchResolution(scopeArtist, "external", time.Since(start))
	o.putCached(ctx, key, scopeArtist, marshalResponse(resp))
	return resp, nil
}

// TracksQuick is tracks_quick(q): tracks only, returning immediately on
// a local hit without running the external fanout.
func (o *Orchestrator) TracksQuick(ctx context.Context, q string, limit int) (*TracksQuickResponse, error) {
	start := time.Now()
	key := cacheKey(scopeTracks, q, 0, limit, "")

	var cached TracksQuickResponse
	if o.lookupCache(ctx, scopeTracks, key, &cached) {
		return &cached, nil
	}

	localTracks, err := o.resolveLocalTracks(ctx, q)
	if err != nil {
		o.log.Debug().Err(err).Msg("local track resolution failed")
	}
	if len(localTracks) > 0 {
		capped, _ := splitAtLimit(o.localTrackResults(ctx, localTracks), limit)
		resp := &TracksQuickResponse{Source: "local", Query: q, Tracks: capped}
		metrics.RecordSearchResolution(scopeTracks, "local", time.Since(start))
		o.putCached(ctx, key, scopeTracks, marshalResponse(resp))
		return resp, nil
	}

	tracks := o.fanoutTracks(ctx, q)
	results := make([]TrackResult, 0, len(tracks))
	for _, t := range tracks {
		results = append(results, convertTrack(t))
	}
	results = dedupeTracks(results)
	results, _ = splitAtLimit(results, limit)
	resp := &TracksQuickResponse{Source: "external", Query: q, Tracks: results}

	for _, t := range tracks {
		for _, a := range t.Artists {
			o.persist.enqueueSaveArtist(a)
		}
	}

	metrics.RecordSearchResolution(scopeTracks, "external", time.Since(start))
	o.putCached(ctx, key, scopeTracks, marshalResponse(resp))
	return resp, nil
}

func ptrCard(c ArtistCard) *ArtistCard { return &c }

func (o *Orchestrator) localTrackResults(ctx context.Context, tracks []*entitystore.Track) []TrackResult {
	out := make([]TrackResult, 0, len(tracks))
	for _, t := range tracks {
		name := ""
		if artist, err := o.store.GetArtistByID(ctx, t.ArtistID); err == nil {
			name = artist.Name
		}
		out = append(out, localTrackResult(t, name))
	}
	return out
}

// buildLocalResponse assembles the local-hit payload. Grounded on
// original_source/app/api/search.py:857-897's local branch: the
// confident artist hits are sliced to limit for the grid, with
// overflow moved into related (search.py:863-865's
// confident_artist_hits[:limit] / [limit:limit+related_limit]); main
// stays nil since the local branch never builds a single-artist block.
// relatedLocalArtists' existing shared-genre neighborhood is folded
// into the same related bucket rather than dropped.
func (o *Orchestrator) buildLocalResponse(ctx context.Context, q string, page, limit int, localArtists []localArtistMatch, localTracks []*entitystore.Track) *Response {
	resp := &Response{Source: "local", Query: q, Page: page, Limit: limit}

	var cards []ArtistCard
	for _, m := range localArtists {
		cards = append(cards, o.buildLocalArtistCard(ctx, m.artist))
	}
	cards = dedupeArtistCards(cards)

	capped, overflow := splitAtLimit(cards, limit)
	resp.Artists = capped
	resp.Related = overflow
	resp.HasMoreArtists = len(cards) > len(capped)

	if len(localArtists) > 0 {
		resp.Related = append(resp.Related, o.relatedLocalArtists(ctx, localArtists[0].artist)...)
	}
	resp.Related = dedupeArtistCards(resp.Related)

	tracks := o.localTrackResults(ctx, localTracks)
	resp.Tracks, _ = splitAtLimit(tracks, limit)
	return resp
}

// buildExternalResponse assembles the external-fanout payload.
// Grounded on original_source/app/api/search.py:902-1123: the
// tag-enriched artists become both "artists" (grid, capped to limit,
// overflow folded into "related") and "lastfm_top" (the full enriched
// list, uncapped, as search.py:1123 returns the same list under both
// keys); similar-artist results populate the rest of "related"; main
// is the grid's top artist.
func (o *Orchestrator) buildExternalResponse(q string, page, limit int, fanout fanoutResult) *Response {
	resp := &Response{Source: "external", Query: q, Page: page, Limit: limit}

	for _, t := range fanout.tracks {
		resp.Tracks = append(resp.Tracks, convertTrack(t))
	}
	resp.Tracks = dedupeTracks(resp.Tracks)
	resp.Tracks, _ = splitAtLimit(resp.Tracks, limit)

	var tagged []ArtistCard
	for _, a := range fanout.taggedArtists {
		tagged = append(tagged, convertArtist(a, nil))
	}
	tagged = dedupeArtistCards(tagged)
	resp.LastfmTop = tagged
	resp.HasMoreLastfm = len(tagged) >= lastfmTagFetchLimit

	capped, overflow := splitAtLimit(tagged, limit)
	resp.Artists = capped
	resp.HasMoreArtists = len(tagged) > len(capped)
	if len(capped) > 0 {
		resp.Main = ptrCard(capped[0])
	}

	related := append([]ArtistCard{}, overflow...)
	for _, a := range fanout.similarArtists {
		related = append(related, convertArtist(a, nil))
	}
	resp.Related = dedupeArtistCards(related)
	return resp
}

// schedulePersistence implements step 5: queue a save for every
// external artist seen, and schedule a full expansion for the top N
// (AutoExpandCount) that have no local row yet.
func (o *Orchestrator) schedulePersistence(ctx context.Context, fanout fanoutResult) {
	all := append(append([]spotify.Artist{}, fanout.taggedArtists...), fanout.similarArtists...)
	expandBudget := o.cfg.AutoExpandCount
	if expandBudget <= 0 {
		expandBudget = 8
	}

	for _, a := range all {
		o.persist.enqueueSaveArtist(a)
		if expandBudget <= 0 {
			continue
		}
		if !o.hasLocalRow(ctx, a.ID) {
			o.persist.enqueueExpand(a.ID)
			expandBudget--
		}
	}
}
