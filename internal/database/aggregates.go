// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guildpulse/guildpulse/internal/metrics"
	"github.com/guildpulse/guildpulse/internal/models"
)

// Aggregate queries backing the newsletter. Rows with a NULL
// collection_interval predate interval tracking and are excluded,
// since their wall-clock weight is unknown.

// VoiceSecondsTotal sums user-seconds spent in channels with more than
// one occupant. Each snapshot contributes user_count*interval.
func (db *DB) VoiceSecondsTotal(ctx context.Context, from, to int64) (int64, error) {
	return db.scalarSum(ctx, "voice_channels", `
		SELECT SUM(user_count * collection_interval)
		FROM voice_channels
		WHERE timestamp BETWEEN ? AND ? AND user_count > 1 AND collection_interval IS NOT NULL`,
		from, to)
}

// VoiceSecondsAlone sums user-seconds spent alone in a channel.
func (db *DB) VoiceSecondsAlone(ctx context.Context, from, to int64) (int64, error) {
	return db.scalarSum(ctx, "voice_channels", `
		SELECT SUM(user_count * collection_interval)
		FROM voice_channels
		WHERE timestamp BETWEEN ? AND ? AND user_count = 1 AND collection_interval IS NOT NULL`,
		from, to)
}

// VoiceSecondsTogether sums wall-clock seconds during which at least one
// channel had more than one occupant. Deduplicating on timestamp keeps
// parallel busy channels from double-counting the same wall-clock time.
func (db *DB) VoiceSecondsTogether(ctx context.Context, from, to int64) (int64, error) {
	return db.scalarSum(ctx, "voice_channels", `
		SELECT SUM(collection_interval)
		FROM (
			SELECT DISTINCT timestamp, collection_interval
			FROM voice_channels
			WHERE timestamp BETWEEN ? AND ? AND user_count > 1 AND collection_interval IS NOT NULL
		)`,
		from, to)
}

// GamingSecondsTotal sums observed playtime across all sources.
func (db *DB) GamingSecondsTotal(ctx context.Context, from, to int64) (int64, error) {
	return db.scalarSum(ctx, "game_activity", `
		SELECT SUM(collection_interval)
		FROM game_activity
		WHERE timestamp BETWEEN ? AND ? AND collection_interval IS NOT NULL`,
		from, to)
}

// UniqueActiveUsers counts distinct subjects seen in voice channels.
func (db *DB) UniqueActiveUsers(ctx context.Context, from, to int64) (int64, error) {
	return db.scalarSum(ctx, "voice_activity", `
		SELECT COUNT(DISTINCT subject)
		FROM voice_activity
		WHERE timestamp BETWEEN ? AND ? AND collection_interval IS NOT NULL`,
		from, to)
}

// PlaytimePerGame returns per-game total playtime, busiest first.
func (db *DB) PlaytimePerGame(ctx context.Context, from, to int64) ([]models.NameValue, error) {
	return db.nameValueQuery(ctx, "game_activity", `
		SELECT game_name, CAST(SUM(collection_interval) AS BIGINT) AS total_playtime
		FROM game_activity
		WHERE timestamp BETWEEN ? AND ? AND collection_interval IS NOT NULL
		GROUP BY game_name
		ORDER BY total_playtime DESC, game_name ASC`,
		from, to)
}

// BiggestGroups returns, per game, the largest number of distinct
// subjects observed in a single snapshot, largest first.
func (db *DB) BiggestGroups(ctx context.Context, from, to int64) ([]models.NameValue, error) {
	return db.nameValueQuery(ctx, "game_activity", `
		SELECT game_name, CAST(MAX(player_count) AS BIGINT) AS peak_players
		FROM (
			SELECT game_name, timestamp, COUNT(DISTINCT subject) AS player_count
			FROM game_activity
			WHERE timestamp BETWEEN ? AND ? AND collection_interval IS NOT NULL
			GROUP BY game_name, timestamp
		)
		GROUP BY game_name
		ORDER BY peak_players DESC, game_name ASC`,
		from, to)
}

// BusiestChannels returns per-channel user-seconds for channels with more
// than one occupant, busiest first.
func (db *DB) BusiestChannels(ctx context.Context, from, to int64) ([]models.NameValue, error) {
	return db.nameValueQuery(ctx, "voice_channels", `
		SELECT channel_name, CAST(SUM(user_count * collection_interval) AS BIGINT) AS total_voicetime
		FROM voice_channels
		WHERE timestamp BETWEEN ? AND ? AND user_count > 1 AND collection_interval IS NOT NULL
		GROUP BY channel_name
		ORDER BY total_voicetime DESC, channel_name ASC`,
		from, to)
}

// EarliestTimestamp returns the oldest timestamp across all activity
// tables, or ok=false when no data has been collected yet.
func (db *DB) EarliestTimestamp(ctx context.Context) (int64, bool, error) {
	start := time.Now()
	var min sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT MIN(min_timestamp) FROM (
			SELECT MIN(timestamp) AS min_timestamp FROM voice_activity
			UNION ALL
			SELECT MIN(timestamp) AS min_timestamp FROM voice_channels
			UNION ALL
			SELECT MIN(timestamp) AS min_timestamp FROM game_activity
		)`).Scan(&min)
	metrics.RecordDBQuery("select", "all", start, err)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query earliest timestamp: %w", err)
	}
	if !min.Valid {
		return 0, false, nil
	}
	return min.Int64, true, nil
}

// scalarSum runs a single-value aggregate, mapping NULL (no rows) to 0.
func (db *DB) scalarSum(ctx context.Context, table, query string, from, to int64) (int64, error) {
	start := time.Now()
	var v sql.NullFloat64
	err := db.conn.QueryRowContext(ctx, query, from, to).Scan(&v)
	metrics.RecordDBQuery("aggregate", table, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to run aggregate on %s: %w", table, err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int64(v.Float64), nil
}

// nameValueQuery runs a two-column (name, value) aggregate.
func (db *DB) nameValueQuery(ctx context.Context, table, query string, from, to int64) ([]models.NameValue, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, from, to)
	metrics.RecordDBQuery("aggregate", table, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregate on %s: %w", table, err)
	}
	defer closeRows(rows)

	var out []models.NameValue
	for rows.Next() {
		var nv models.NameValue
		if err := rows.Scan(&nv.Name, &nv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		out = append(out, nv)
	}
	return out, rows.Err()
}
