// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/melodex/core/internal/logging"
)

// Store wraps the DuckDB connection backing the Entity Store contract
// (spec §6.1): transactional upserts, indexed lookups, and an alias
// similarity predicate.
type Store struct {
	conn               *sql.DB
	path               string
	rapidfuzzAvailable bool
}

// Config configures the on-disk database file and connection tuning.
type Config struct {
	Path    string
	Threads int
	// MaxMemory is a DuckDB memory_limit string, e.g. "2GB". Empty uses
	// DuckDB's own default (80% of system RAM).
	MaxMemory string
}

// Open creates (or reopens) the DuckDB-backed entity store, installs the
// extensions it depends on, and runs schema migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("entitystore: create database directory %s: %w", dir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "4GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("entitystore: open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, path: cfg.Path}

	if err := s.installExtensions(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("entitystore: install extensions: %w", err)
	}
	if err := s.createSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("entitystore: create schema: %w", err)
	}

	return s, nil
}

// installExtensions loads the RapidFuzz community extension, which
// powers the alias similarity predicate. Absence is non-fatal: lookups
// degrade to a LIKE-substring match at a fixed score (spec §4.1, §4.3).
func (s *Store) installExtensions(ctx context.Context) error {
	installCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := s.conn.ExecContext(installCtx, "INSTALL rapidfuzz FROM community;"); err != nil {
		logging.Warn().Err(err).Msg("entitystore: rapidfuzz extension install failed, alias similarity will degrade to LIKE matching")
		return nil
	}
	if _, err := s.conn.ExecContext(installCtx, "LOAD rapidfuzz;"); err != nil {
		logging.Warn().Err(err).Msg("entitystore: rapidfuzz extension load failed, alias similarity will degrade to LIKE matching")
		return nil
	}
	s.rapidfuzzAvailable = true
	return nil
}

// IsRapidFuzzAvailable reports whether alias similarity lookups use the
// RapidFuzz extension or the degraded LIKE fallback.
func (s *Store) IsRapidFuzzAvailable() bool {
	return s.rapidfuzzAvailable
}

// Conn returns the underlying *sql.DB for callers that need to compose
// a transaction spanning multiple entitystore calls.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close flushes and closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT;"); err != nil {
		logging.Warn().Err(err).Msg("entitystore: checkpoint before close failed")
	}
	return s.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	_ = conn.Close()
}
