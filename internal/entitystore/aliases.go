// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/melodex/core/internal/metrics"
)

// SimilarAlias is one alias match with its similarity score (0-100 on
// the RapidFuzz scale, or the degraded 20 substring-match score).
type SimilarAlias struct {
	EntityKind    string
	EntityLocalID int64
	Raw           string
	Normalized    string
	Score         int
}

// EnsureEntityAliases inserts only the aliases whose normalized form is
// not already present for this entity, per the insert-only-missing
// idiom grounded in the original ensure_entity_aliases behavior.
// rawBySource maps each candidate alias's normalized form to its raw
// (pre-normalization) display form and the generation source tag.
func (s *Store) EnsureEntityAliases(ctx context.Context, kind string, entityID int64, aliases []Alias) error {
	if len(aliases) == 0 {
		return nil
	}

	existing := make(map[string]bool)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT normalized FROM aliases WHERE entity_kind = ? AND entity_local_id = ?`, kind, entityID)
	if err != nil {
		return fmt.Errorf("entitystore: load existing aliases: %w", err)
	}
	for rows.Next() {
		var norm string
		if err := rows.Scan(&norm); err != nil {
			rows.Close()
			return fmt.Errorf("entitystore: scan existing alias: %w", err)
		}
		existing[norm] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("entitystore: iterate existing aliases: %w", err)
	}
	rows.Close()

	stmt, err := s.conn.PrepareContext(ctx,
		`INSERT INTO aliases (entity_kind, entity_local_id, raw, normalized, source) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("entitystore: prepare alias insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range aliases {
		if existing[a.Normalized] {
			continue
		}
		if _, err := stmt.ExecContext(ctx, kind, entityID, a.Raw, a.Normalized, a.Source); err != nil {
			if isUniqueConstraintError(err) {
				// Two writers raced to add the same alias; the unique
				// (kind, entity, normalized) constraint already protects us.
				continue
			}
			return fmt.Errorf("entitystore: insert alias: %w", err)
		}
		existing[a.Normalized] = true
	}
	return nil
}

// FindSimilarAliases runs the alias similarity predicate required by
// the Entity Store contract (spec §4.1): a RapidFuzz-backed
// similarity(a,b) >= threshold filter when the extension is available,
// or a case-insensitive substring match scored at a fixed 20 (on a
// 0-100 scale, i.e. the spec's 0.2) when it is not.
func (s *Store) FindSimilarAliases(ctx context.Context, kind, normalizedQuery string, minScore int, limit int) ([]SimilarAlias, error) {
	if minScore <= 0 {
		minScore = 30
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if s.rapidfuzzAvailable {
		return s.findSimilarAliasesRapidFuzz(ctx, kind, normalizedQuery, minScore, limit)
	}
	metrics.RecordAliasSimilarityFallback()
	return s.findSimilarAliasesFallback(ctx, kind, normalizedQuery, limit)
}

func (s *Store) findSimilarAliasesRapidFuzz(ctx context.Context, kind, normalizedQuery string, minScore, limit int) ([]SimilarAlias, error) {
	query := `
		SELECT entity_kind, entity_local_id, raw, normalized,
			GREATEST(
				rapidfuzz_ratio(normalized, ?)::INTEGER,
				(rapidfuzz_token_set_ratio(normalized, ?))::INTEGER
			) AS score
		FROM aliases
		WHERE entity_kind = ?
		QUALIFY score >= ?
		ORDER BY score DESC
		LIMIT ?`

	rows, err := s.conn.QueryContext(ctx, query, normalizedQuery, normalizedQuery, kind, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: rapidfuzz alias search: %w", err)
	}
	defer rows.Close()
	return scanSimilarAliasRows(rows)
}

func (s *Store) findSimilarAliasesFallback(ctx context.Context, kind, normalizedQuery string, limit int) ([]SimilarAlias, error) {
	query := `
		SELECT entity_kind, entity_local_id, raw, normalized, 20 AS score
		FROM aliases
		WHERE entity_kind = ? AND normalized LIKE ?
		ORDER BY LENGTH(normalized) ASC
		LIMIT ?`

	rows, err := s.conn.QueryContext(ctx, query, kind, "%"+normalizedQuery+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: fallback alias search: %w", err)
	}
	defer rows.Close()
	return scanSimilarAliasRows(rows)
}

func scanSimilarAliasRows(rows *sql.Rows) ([]SimilarAlias, error) {
	var out []SimilarAlias
	for rows.Next() {
		var m SimilarAlias
		if err := rows.Scan(&m.EntityKind, &m.EntityLocalID, &m.Raw, &m.Normalized, &m.Score); err != nil {
			return nil, fmt.Errorf("entitystore: scan alias match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
