// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package main is the entry point for the melodex server.
//
// melodex is a personal music library aggregator: it resolves search
// queries against a local catalog first, falls back to a chain of
// external metadata/stats/video providers to enrich or backfill data,
// schedules background ingestion (daily refresh, genre backfill,
// YouTube link prefetch, chart scraping), and keeps the catalog
// continuously fresh through an idempotent, alias-aware writer.
//
// # Application Architecture
//
// main initializes components in dependency order: configuration,
// logging, the DuckDB-backed entity store, the three external provider
// clients, the catalog writer, the search/freshness/expansion
// collaborators, the five background loops (C8), the YouTube link
// resolver and its prefetch sweep, the curated lists cache, and
// finally the HTTP server — each long-running piece wired into a
// suture supervisor tree with two layers (background, api) so a crash
// in one loop never takes down request serving.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/melodex/core/internal/api"
	"github.com/melodex/core/internal/catalog"
	"github.com/melodex/core/internal/config"
	"github.com/melodex/core/internal/curated"
	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/expander"
	"github.com/melodex/core/internal/freshness"
	"github.com/melodex/core/internal/logging"
	"github.com/melodex/core/internal/loops"
	"github.com/melodex/core/internal/providers/lastfm"
	"github.com/melodex/core/internal/providers/spotify"
	"github.com/melodex/core/internal/providers/youtube"
	"github.com/melodex/core/internal/search"
	"github.com/melodex/core/internal/supervisor"
	"github.com/melodex/core/internal/ytlink"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting melodex with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := entitystore.Open(ctx, entitystore.Config{Path: cfg.Server.DatabasePath})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open entity store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing entity store")
		}
	}()
	logging.Info().Str("path", cfg.Server.DatabasePath).Msg("entity store opened")

	zlog := logging.Logger()

	spotifyClient := spotify.New(cfg.Spotify)
	lastfmClient := lastfm.New(cfg.Lastfm)
	youtubeClient := youtube.New(cfg.YouTube)

	writer := catalog.New(store, zlog)
	exp := expander.New(store, writer, spotifyClient, lastfmClient, zlog)
	freshnessManager := freshness.New(store, writer, spotifyClient, lastfmClient, cfg.Entities, zlog)

	orchestrator, persistQueue := search.New(store, writer, exp, spotifyClient, lastfmClient, cfg.Search, zlog)
	curatedSvc := curated.New(store, cfg.Search, zlog)

	// The command-line video extractor is a Media Fetcher collaborator
	// outside this module's scope (see internal/ytlink's package doc);
	// resolving tracks through the YouTube Data API alone is the
	// supported configuration, with the fallback path permanently
	// unavailable per ytlink.New's own nil-extractor contract.
	resolver := ytlink.New(writer, youtubeClient, nil, cfg.YouTube, cfg.Ytdlp, cfg.Storage, zlog)
	prefetch := ytlink.NewPrefetch(resolver, store, cfg.Entities, 0, zlog)

	dailyRefresh := loops.NewDailyRefresh(store, writer, exp, lastfmClient)
	genreBackfill := loops.NewGenreBackfill(store, writer, lastfmClient, cfg.Entities)
	libraryRefresh := loops.NewLibraryRefresh(store, freshnessManager, cfg.Entities.LibraryRefreshBatch)
	chartMatcher := loops.NewChartMatcher(store, cfg.Chart)
	chartScraper := loops.NewChartScraper(store, chartFetcherStub{}, chartMatcher, cfg.Chart)

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddBackgroundService(dailyRefresh)
	tree.AddBackgroundService(genreBackfill)
	tree.AddBackgroundService(libraryRefresh)
	tree.AddBackgroundService(chartScraper)
	tree.AddBackgroundService(chartMatcher)
	tree.AddBackgroundService(prefetch)
	tree.AddBackgroundService(persistQueue)
	logging.Info().Msg("background loops added to supervisor tree")

	handler := api.NewHandler(store, orchestrator, curatedSvc, resolver, zlog)
	router := api.NewRouter(handler)
	server := api.NewServer(router, cfg.Server, zlog)
	tree.AddAPIService(server)
	logging.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("api server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("melodex stopped gracefully")
}

// chartFetcherStub satisfies loops.ChartFetcher with no entries.
// Chart scraping's HTML parsing is a named external collaborator
// (spec's Non-goals: "Chart scraping HTML parser, treated as a
// function fetch_chart_entries(chart, date) -> rows"), mirroring how
// ytlink.Extractor is wired nil above — the scraper loop and matcher
// still run and are supervised, but produce no rows until a real
// fetcher is plugged in here.
type chartFetcherStub struct{}

func (chartFetcherStub) FetchChartEntries(ctx context.Context, chart string, chartDate time.Time) ([]loops.ChartEntry, error) {
	return nil, nil
}
