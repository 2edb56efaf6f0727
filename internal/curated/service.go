// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package curated

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/cache"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
)

// defaultListLimit matches LIST_CONFIGS' uniform limit of 50 in the
// original lists_cache.py; nothing in spec.md or the original
// distinguishes a per-list limit.
const defaultListLimit = 50

// genreSeedArtistCount bounds how many of the library's most popular
// artists seed the genre-suggestions genre set, substituting for the
// original's favorited-artist genre set (see doc.go).
const genreSeedArtistCount = 10

// Service generates and caches the six curated lists (C10).
type Service struct {
	store *entitystore.Store
	cache *cache.Cache
	log   zerolog.Logger
}

// New constructs the curated lists service, backing its cache with the
// configured TTL (config.SearchConfig.CuratedListTTL, 5 minutes by
// default).
func New(store *entitystore.Store, cfg config.SearchConfig, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		cache: cache.New(cfg.CuratedListTTL),
		log:   log.With().Str("component", "curated").Logger(),
	}
}

// GetList returns a curated list, serving from cache unless forceRefresh
// is set or the entry has expired.
func (s *Service) GetList(ctx context.Context, list string, forceRefresh bool) (*ListResult, error) {
	if !forceRefresh {
		if v, ok := s.cache.Get(list); ok {
			metrics.RecordCuratedCacheResult(list, true)
			cached := *(v.(*ListResult))
			cached.Cached = true
			return &cached, nil
		}
	}
	metrics.RecordCuratedCacheResult(list, false)
	return s.generate(ctx, list)
}

// RefreshCache forces regeneration of a single list, bypassing the cache.
func (s *Service) RefreshCache(ctx context.Context, list string) (*ListResult, error) {
	return s.GetList(ctx, list, true)
}

// GetAllLists returns every named list, generating or serving each from
// cache independently; a single list's generation failure is logged and
// skipped rather than failing the whole batch.
func (s *Service) GetAllLists(ctx context.Context) map[string]*ListResult {
	out := make(map[string]*ListResult, len(ListNames))
	for _, list := range ListNames {
		res, err := s.GetList(ctx, list, false)
		if err != nil {
			s.log.Warn().Err(err).Str("list", list).Msg("curated list generation failed")
			continue
		}
		out[list] = res
	}
	return out
}

// Invalidate purges a single list's cache entry, or every list's entry
// when list is empty.
func (s *Service) Invalidate(list string) {
	if list == "" {
		s.cache.Clear()
		return
	}
	s.cache.Delete(list)
}

func (s *Service) generate(ctx context.Context, list string) (*ListResult, error) {
	start := time.Now()
	items, err := s.runGenerator(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("curated: generate %s: %w", list, err)
	}
	metrics.RecordCuratedListGeneration(list, time.Since(start))

	res := &ListResult{
		List:        list,
		Items:       items,
		Total:       len(items),
		LastUpdated: time.Now(),
		Cached:      false,
	}
	s.cache.Set(list, res)
	return res, nil
}

func (s *Service) runGenerator(ctx context.Context, list string) ([]Track, error) {
	switch list {
	case ListFavoritesWithLink:
		return s.generateFavoritesWithLink(ctx)
	case ListDownloaded:
		return s.generateDownloaded(ctx)
	case ListDiscovery:
		return s.generateDiscovery(ctx)
	case ListTopYear:
		return s.generateTopYear(ctx)
	case ListMostPlayed:
		return s.generateMostPlayed(ctx)
	case ListGenreSuggestions:
		return s.generateGenreSuggestions(ctx)
	default:
		return nil, fmt.Errorf("unknown list %q", list)
	}
}

// generateFavoritesWithLink substitutes for the original's
// favorited-tracks-with-a-YouTube-link list: the Entity Store has no
// Favorite table (see doc.go), so this surfaces every track whose link
// has resolved past discovery, favorited or not.
func (s *Service) generateFavoritesWithLink(ctx context.Context) ([]Track, error) {
	rows, err := s.store.ListTracksWithResolvedLink(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

func (s *Service) generateDownloaded(ctx context.Context) ([]Track, error) {
	rows, err := s.store.ListDownloadedTracks(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

func (s *Service) generateDiscovery(ctx context.Context) ([]Track, error) {
	rows, err := s.store.ListTracksWithoutChartPresence(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

func (s *Service) generateTopYear(ctx context.Context) ([]Track, error) {
	since := time.Now().AddDate(-1, 0, 0)
	rows, err := s.store.ListTracksAddedSince(ctx, since, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

func (s *Service) generateMostPlayed(ctx context.Context) ([]Track, error) {
	rows, err := s.store.ListTracksByChartPresence(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

func (s *Service) generateGenreSuggestions(ctx context.Context) ([]Track, error) {
	seeds, err := s.store.ListTopArtistsByPopularity(ctx, genreSeedArtistCount)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	genreSet := make(map[string]struct{})
	seedIDs := make([]int64, 0, len(seeds))
	for _, a := range seeds {
		seedIDs = append(seedIDs, a.ID)
		for _, g := range a.Genres {
			genreSet[g] = struct{}{}
		}
	}
	if len(genreSet) == 0 {
		return nil, nil
	}
	genres := make([]string, 0, len(genreSet))
	for g := range genreSet {
		genres = append(genres, g)
	}

	rows, err := s.store.ListTracksByGenres(ctx, genres, seedIDs, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toResults(rows), nil
}
