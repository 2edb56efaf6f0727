// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package catalog

import (
	"context"
	"time"

	"github.com/melodex/core/internal/entitystore"
	"github.com/melodex/core/internal/metrics"
	"github.com/melodex/core/internal/normalize"
)

// SaveArtist upserts an artist and refreshes its alias rows. It is
// idempotent and safe under concurrent callers: entitystore.UpsertArtist
// already retries once on a residual unique-constraint conflict, so this
// layer only needs to add the alias refresh and the metric.
func (w *Writer) SaveArtist(ctx context.Context, a *entitystore.Artist) (*entitystore.Artist, error) {
	start := time.Now()
	a.NormalizedName = normalize.Normalize(a.Name)

	saved, err := w.store.UpsertArtist(ctx, a)
	if err == entitystore.ErrConflict {
		metrics.RecordEntityStoreConflictRetry(entitystore.EntityKindArtist)
		saved, err = w.store.UpsertArtist(ctx, mergeArtist(saved, a))
	}
	w.timeWrite("save_artist", start)
	if err != nil {
		return nil, err
	}

	if err := w.refreshAliases(ctx, entitystore.EntityKindArtist, saved.ID, saved.Name); err != nil {
		w.log.Warn().Err(err).Int64("artist_id", saved.ID).Msg("alias refresh failed")
	}
	return saved, nil
}

// mergeArtist applies the caller's updates onto the row returned by a
// conflict reread, matching save_artist's rollback-reread-reapply step.
func mergeArtist(existing, updates *entitystore.Artist) *entitystore.Artist {
	merged := *existing
	merged.Name = updates.Name
	merged.NormalizedName = updates.NormalizedName
	merged.Genres = updates.Genres
	merged.ImageRef = updates.ImageRef
	merged.Popularity = updates.Popularity
	merged.Followers = updates.Followers
	if updates.BioSummary != "" {
		merged.BioSummary = updates.BioSummary
	}
	if updates.BioText != "" {
		merged.BioText = updates.BioText
	}
	if updates.ProviderID != "" {
		merged.ProviderID = updates.ProviderID
	}
	return &merged
}

// refreshAliases re-derives every alias variant for name and ensures
// each one's normalized form has a row, keyed by normalized text the
// same way upsert_aliases deduplicates: raw variants that normalize to
// the same string collapse to a single alias row.
func (w *Writer) refreshAliases(ctx context.Context, kind string, entityID int64, name string) error {
	canonical := normalize.Normalize(name)
	byNormalized := make(map[string]string)
	for v := range normalize.GenerateAliases(name) {
		n := normalize.Normalize(v)
		if n == "" {
			continue
		}
		if _, exists := byNormalized[n]; !exists {
			byNormalized[n] = v
		}
	}

	aliases := make([]entitystore.Alias, 0, len(byNormalized))
	for n, raw := range byNormalized {
		source := "variant"
		if n == canonical {
			source = "normalized"
		}
		aliases = append(aliases, entitystore.Alias{
			EntityKind:    kind,
			EntityLocalID: entityID,
			Raw:           raw,
			Normalized:    n,
			Source:        source,
		})
	}
	return w.store.EnsureEntityAliases(ctx, kind, entityID, aliases)
}
