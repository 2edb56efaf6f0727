// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package normalize implements the Text Normalizer + Alias Index (C3).
//
// Normalize produces the canonical form used everywhere names are
// compared: lowercased, accent-stripped (NFD decomposition with
// combining marks removed), non-alphanumeric runs collapsed to a
// single space, and whitespace collapsed.
//
// GenerateAliases expands a raw name into the set of alias strings
// persisted alongside an entity: the normalized form, its
// space-removed form, duplicate-collapsed and vowel-stripped
// variants, and a small table of phonetic substitutions (ph->f,
// ck->k, qu->k, kk->k, sch->sh, sh->s, y->i) applied in order, each
// further collapsed and vowel-stripped. These feed
// internal/entitystore's EnsureEntityAliases.
//
// TrigramSimilarity, LongestCommonSubsequenceRatio, Score, and
// IsConfidentMatch implement the in-process candidate scoring used by
// the search orchestrator and resolver once candidates have already
// been pulled from storage (the entity store's own RapidFuzz
// predicate narrows the SQL-side candidate set; this package decides
// whether a given candidate is a confident match for a query).
package normalize
