// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"context"
	"strings"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/normalize"
)

const (
	relatedArtistLimit = 8
	localTrackLimit    = 20
	localArtistLimit   = 10
)

// localArtistMatch is a confident local artist hit together with the
// full row it resolved to.
type localArtistMatch struct {
	artist *entitystore.Artist
	score  int
}

// resolveLocalArtists runs the alias-similarity lookup against the
// artist alias index and keeps only confident matches, per §4.3's rule
// applied to each candidate's normalized form.
func (o *Orchestrator) resolveLocalArtists(ctx context.Context, q string) ([]localArtistMatch, error) {
	normalizedQuery := normalize.Normalize(q)
	if normalizedQuery == "" {
		return nil, nil
	}

	matches, err := o.store.FindSimilarAliases(ctx, entitystore.EntityKindArtist, normalizedQuery, 30, localArtistLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var out []localArtistMatch
	for _, m := range matches {
		if !normalize.IsConfidentMatch(normalizedQuery, m.Normalized) {
			continue
		}
		if seen[m.EntityLocalID] {
			continue
		}
		artist, err := o.store.GetArtistByID(ctx, m.EntityLocalID)
		if err != nil {
			continue
		}
		seen[m.EntityLocalID] = true
		out = append(out, localArtistMatch{artist: artist, score: m.Score})
	}
	return out, nil
}

// resolveLocalTracks narrows candidate tracks by the query's first
// token, then keeps only those whose normalized title contains every
// query token (the track confidence rule spec.md §4.9 step 2 names).
func (o *Orchestrator) resolveLocalTracks(ctx context.Context, q string) ([]*entitystore.Track, error) {
	normalizedQuery := normalize.Normalize(q)
	tokens := strings.Fields(normalizedQuery)
	if len(tokens) == 0 {
		return nil, nil
	}

	candidates, err := o.store.SearchTracksByTitle(ctx, tokens[0], localTrackLimit*3)
	if err != nil {
		return nil, err
	}

	var confident []*entitystore.Track
	for _, t := range candidates {
		normalizedTitle := normalize.Normalize(t.Name)
		if allTokensPresent(tokens, normalizedTitle) {
			confident = append(confident, t)
		}
		if len(confident) >= localTrackLimit {
			break
		}
	}
	return confident, nil
}

func allTokensPresent(tokens []string, normalizedTitle string) bool {
	for _, tok := range tokens {
		if !strings.Contains(normalizedTitle, tok) {
			return false
		}
	}
	return true
}

// buildLocalArtistCard assembles an artist card entirely from local
// rows: the matched artist itself plus, optionally, nearby local
// artists sharing at least one genre.
func (o *Orchestrator) buildLocalArtistCard(ctx context.Context, a *entitystore.Artist) ArtistCard {
	return ArtistCard{
		Name:  a.Name,
		Local: true,
		Spotify: &SpotifyArtist{
			ID:         a.ProviderID,
			Name:       a.Name,
			Genres:     a.Genres,
			Popularity: a.Popularity,
			Followers:  a.Followers,
		},
		Lastfm: &LastfmArtist{
			Summary: a.BioSummary,
		},
	}
}

// relatedLocalArtists returns other local artists sharing a genre with
// a, for the "related local artists by shared genres" requirement.
func (o *Orchestrator) relatedLocalArtists(ctx context.Context, a *entitystore.Artist) []ArtistCard {
	if len(a.Genres) == 0 {
		return nil
	}
	related, err := o.store.ListArtistsByGenre(ctx, a.Genres, a.ID, relatedArtistLimit)
	if err != nil {
		o.log.Debug().Err(err).Msg("related local artists lookup failed")
		return nil
	}
	cards := make([]ArtistCard, 0, len(related))
	for _, r := range related {
		cards = append(cards, o.buildLocalArtistCard(ctx, r))
	}
	return cards
}

func localTrackResult(t *entitystore.Track, artistName string) TrackResult {
	return TrackResult{
		ID:         t.ProviderID,
		Name:       t.Name,
		DurationMs: t.DurationMs,
		Popularity: t.Popularity,
		PreviewURL: t.PreviewURL,
		Artists:    []ArtistLite{{Name: artistName}},
	}
}
