// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package database provides the DuckDB-backed snapshot store.
//
// One row is written per observed entity per poll tick; sessions are never
// stored, only reconstructed from these rows at query time by the sessions
// package.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/logging"
)

// DB wraps the DuckDB connection and provides snapshot access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database file and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists; DuckDB will not create it.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is an embedded single-writer engine; a small pool suffices.
	conn.SetMaxOpenConns(numThreads)
	conn.SetMaxIdleConns(2)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Database ready")
	return db, nil
}

// NewInMemory opens an in-memory database, used by tests.
func NewInMemory() (*DB, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db := &DB{conn: conn, cfg: &config.DatabaseConfig{Path: ":memory:"}}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// schema creates the three snapshot tables. collection_interval is nullable:
// rows recorded before the column existed carry NULL and the session engine
// substitutes a group default.
const schema = `
CREATE TABLE IF NOT EXISTS voice_activity (
	timestamp BIGINT NOT NULL,
	subject VARCHAR NOT NULL,
	channel_name VARCHAR NOT NULL,
	guild_id VARCHAR NOT NULL,
	collection_interval DOUBLE
);

CREATE TABLE IF NOT EXISTS voice_channels (
	timestamp BIGINT NOT NULL,
	channel_name VARCHAR NOT NULL,
	guild_id VARCHAR NOT NULL,
	user_count INTEGER NOT NULL,
	tracked_users INTEGER NOT NULL,
	collection_interval DOUBLE
);

CREATE TABLE IF NOT EXISTS game_activity (
	timestamp BIGINT NOT NULL,
	subject VARCHAR NOT NULL,
	game_name VARCHAR NOT NULL,
	source VARCHAR NOT NULL,
	collection_interval DOUBLE
);
`

func (db *DB) initSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// nullable converts an optional interval to its SQL representation.
func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// optional converts a scanned SQL float back to the model representation.
func optional(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
