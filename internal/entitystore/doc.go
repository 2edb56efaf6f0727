// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

/*
Package entitystore implements the Entity Store adapter (C1): a
DuckDB-backed relational layer providing transactional upserts of
artists, albums, tracks, YouTube links, and aliases, plus the indexed
lookups and alias similarity predicate the rest of melodex's core
depends on.

# Upsert contract

Each UpsertX method merges an incoming row into an existing one located
first by provider id (the stronger identity), then by a natural key
(normalized name for artists, artist+name for albums/tracks). A
residual unique-constraint violation from a concurrent writer is
surfaced as ErrConflict alongside the freshly re-read row, so the
caller can merge and retry rather than silently overwrite.

# Alias similarity

FindSimilarAliases uses the RapidFuzz community extension when it
loaded successfully at Open time; otherwise it degrades to a
case-insensitive substring match at a fixed score, per the Entity Store
contract's required fallback. Store.IsRapidFuzzAvailable reports which
path is active.

# Schema

Tables and indexes are created idempotently by createSchema on Open;
there is no separate migration runner since every change here is an
additive CREATE TABLE/INDEX IF NOT EXISTS.
*/
package entitystore
