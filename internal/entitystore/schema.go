// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS artists_id_seq;`,
	`CREATE TABLE IF NOT EXISTS artists (
		id BIGINT PRIMARY KEY DEFAULT nextval('artists_id_seq'),
		provider_id VARCHAR UNIQUE,
		name VARCHAR NOT NULL,
		normalized_name VARCHAR NOT NULL,
		genres VARCHAR[] NOT NULL DEFAULT [],
		image_ref VARCHAR,
		popularity INTEGER NOT NULL DEFAULT 0,
		followers BIGINT NOT NULL DEFAULT 0,
		bio_summary VARCHAR,
		bio_text VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_refreshed_at TIMESTAMP
	);`,

	`CREATE SEQUENCE IF NOT EXISTS albums_id_seq;`,
	`CREATE TABLE IF NOT EXISTS albums (
		id BIGINT PRIMARY KEY DEFAULT nextval('albums_id_seq'),
		provider_id VARCHAR UNIQUE,
		name VARCHAR NOT NULL,
		artist_id BIGINT NOT NULL REFERENCES artists(id),
		release_date VARCHAR,
		total_tracks INTEGER NOT NULL DEFAULT 0,
		label VARCHAR,
		image_ref VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE SEQUENCE IF NOT EXISTS tracks_id_seq;`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id BIGINT PRIMARY KEY DEFAULT nextval('tracks_id_seq'),
		provider_id VARCHAR UNIQUE,
		name VARCHAR NOT NULL,
		artist_id BIGINT NOT NULL REFERENCES artists(id),
		album_id BIGINT REFERENCES albums(id),
		duration_ms INTEGER NOT NULL DEFAULT 0,
		popularity INTEGER NOT NULL DEFAULT 0,
		preview_url VARCHAR,
		external_url VARCHAR,
		download_path VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS youtube_links (
		track_provider_id VARCHAR PRIMARY KEY,
		video_id VARCHAR,
		download_path VARCHAR,
		status VARCHAR NOT NULL DEFAULT 'pending',
		file_size BIGINT NOT NULL DEFAULT 0,
		error_message VARCHAR,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE SEQUENCE IF NOT EXISTS aliases_id_seq;`,
	`CREATE TABLE IF NOT EXISTS aliases (
		id BIGINT PRIMARY KEY DEFAULT nextval('aliases_id_seq'),
		entity_kind VARCHAR NOT NULL,
		entity_local_id BIGINT NOT NULL,
		raw VARCHAR NOT NULL,
		normalized VARCHAR NOT NULL,
		source VARCHAR NOT NULL DEFAULT 'derived',
		UNIQUE (entity_kind, entity_local_id, normalized)
	);`,

	`CREATE SEQUENCE IF NOT EXISTS chart_entries_raw_id_seq;`,
	`CREATE TABLE IF NOT EXISTS chart_entries_raw (
		id BIGINT PRIMARY KEY DEFAULT nextval('chart_entries_raw_id_seq'),
		source VARCHAR NOT NULL,
		chart VARCHAR NOT NULL,
		chart_date DATE NOT NULL,
		rank INTEGER NOT NULL,
		title VARCHAR NOT NULL,
		artist VARCHAR NOT NULL,
		UNIQUE (source, chart, chart_date, rank)
	);`,

	`CREATE TABLE IF NOT EXISTS track_chart_stats (
		track_id BIGINT NOT NULL REFERENCES tracks(id),
		source VARCHAR NOT NULL,
		chart VARCHAR NOT NULL,
		best_position INTEGER NOT NULL,
		weeks_on_chart INTEGER NOT NULL DEFAULT 0,
		weeks_at_one INTEGER NOT NULL DEFAULT 0,
		weeks_top5 INTEGER NOT NULL DEFAULT 0,
		weeks_top10 INTEGER NOT NULL DEFAULT 0,
		first_chart_date DATE,
		last_chart_date DATE,
		PRIMARY KEY (track_id, source, chart)
	);`,

	`CREATE TABLE IF NOT EXISTS chart_scan_state (
		source VARCHAR NOT NULL,
		chart VARCHAR NOT NULL,
		last_scanned_date DATE,
		backfill_complete BOOLEAN NOT NULL DEFAULT false,
		PRIMARY KEY (source, chart)
	);`,

	`CREATE TABLE IF NOT EXISTS search_cache_entries (
		cache_key VARCHAR PRIMARY KEY,
		payload BLOB NOT NULL,
		context VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_artists_normalized_name ON artists(normalized_name);`,
	`CREATE INDEX IF NOT EXISTS idx_artists_popularity ON artists(popularity DESC, id ASC);`,
	`CREATE INDEX IF NOT EXISTS idx_artists_last_refreshed ON artists(last_refreshed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_albums_artist_id ON albums(artist_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_artist_id ON tracks(artist_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_album_id ON tracks(album_id);`,
	`CREATE INDEX IF NOT EXISTS idx_aliases_normalized ON aliases(normalized);`,
	`CREATE INDEX IF NOT EXISTS idx_aliases_entity ON aliases(entity_kind, entity_local_id);`,
	`CREATE INDEX IF NOT EXISTS idx_chart_entries_chart_date ON chart_entries_raw(source, chart, chart_date);`,
}

// createSchema creates all tables and indexes, idempotently.
func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("entitystore: schema statement failed (%q): %w", firstLine(stmt), err)
		}
	}
	for _, stmt := range indexStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("entitystore: index statement failed (%q): %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
