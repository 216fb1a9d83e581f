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

// InsertVoiceActivity writes one user-in-channel observation.
func (db *DB) InsertVoiceActivity(ctx context.Context, s models.VoiceSnapshot) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO voice_activity (timestamp, subject, channel_name, guild_id, collection_interval)
		VALUES (?, ?, ?, ?, ?)`,
		s.Timestamp, s.Subject, s.Channel, s.GuildID, nullable(s.Interval))
	metrics.RecordDBQuery("insert", "voice_activity", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert voice activity: %w", err)
	}
	return nil
}

// InsertChannelSnapshot writes one channel-occupancy observation.
func (db *DB) InsertChannelSnapshot(ctx context.Context, s models.ChannelSnapshot) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO voice_channels (timestamp, channel_name, guild_id, user_count, tracked_users, collection_interval)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Timestamp, s.Channel, s.GuildID, s.UserCount, s.TrackedUsers, nullable(s.Interval))
	metrics.RecordDBQuery("insert", "voice_channels", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert channel snapshot: %w", err)
	}
	return nil
}

// InsertGameActivity writes one game observation.
func (db *DB) InsertGameActivity(ctx context.Context, s models.ActivitySnapshot) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO game_activity (timestamp, subject, game_name, source, collection_interval)
		VALUES (?, ?, ?, ?, ?)`,
		s.Timestamp, s.Subject, s.Game, string(s.Source), nullable(s.Interval))
	metrics.RecordDBQuery("insert", "game_activity", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert game activity: %w", err)
	}
	return nil
}

// GetVoiceActivity returns voice snapshots in [from, to], ordered
// deterministically so reconstruction over the result is reproducible.
func (db *DB) GetVoiceActivity(ctx context.Context, from, to int64) ([]models.VoiceSnapshot, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT timestamp, subject, channel_name, guild_id, collection_interval
		FROM voice_activity
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC, subject ASC, channel_name ASC`,
		from, to)
	metrics.RecordDBQuery("select", "voice_activity", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query voice activity: %w", err)
	}
	defer closeRows(rows)

	var out []models.VoiceSnapshot
	for rows.Next() {
		var (
			s  models.VoiceSnapshot
			iv sql.NullFloat64
		)
		if err := rows.Scan(&s.Timestamp, &s.Subject, &s.Channel, &s.GuildID, &iv); err != nil {
			return nil, fmt.Errorf("failed to scan voice activity row: %w", err)
		}
		s.Interval = optional(iv)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetGameActivity returns game snapshots for one observation source in
// [from, to], ordered deterministically.
func (db *DB) GetGameActivity(ctx context.Context, source models.ObservationSource, from, to int64) ([]models.ActivitySnapshot, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT timestamp, subject, game_name, source, collection_interval
		FROM game_activity
		WHERE source = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC, subject ASC, game_name ASC`,
		string(source), from, to)
	metrics.RecordDBQuery("select", "game_activity", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query game activity: %w", err)
	}
	defer closeRows(rows)

	var out []models.ActivitySnapshot
	for rows.Next() {
		var (
			s   models.ActivitySnapshot
			src string
			iv  sql.NullFloat64
		)
		if err := rows.Scan(&s.Timestamp, &s.Subject, &s.Game, &src, &iv); err != nil {
			return nil, fmt.Errorf("failed to scan game activity row: %w", err)
		}
		s.Source = models.ObservationSource(src)
		s.Interval = optional(iv)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetChannelSnapshots returns channel-occupancy rows in [from, to].
func (db *DB) GetChannelSnapshots(ctx context.Context, from, to int64) ([]models.ChannelSnapshot, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT timestamp, channel_name, guild_id, user_count, tracked_users, collection_interval
		FROM voice_channels
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC, channel_name ASC`,
		from, to)
	metrics.RecordDBQuery("select", "voice_channels", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel snapshots: %w", err)
	}
	defer closeRows(rows)

	var out []models.ChannelSnapshot
	for rows.Next() {
		var (
			s  models.ChannelSnapshot
			iv sql.NullFloat64
		)
		if err := rows.Scan(&s.Timestamp, &s.Channel, &s.GuildID, &s.UserCount, &s.TrackedUsers, &iv); err != nil {
			return nil, fmt.Errorf("failed to scan channel snapshot row: %w", err)
		}
		s.Interval = optional(iv)
		out = append(out, s)
	}
	return out, rows.Err()
}

// closeRows closes a result set, logging rather than masking the error.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		// A close failure after a successful scan is not actionable for
		// the caller; record it and move on.
		metrics.DBQueryErrors.WithLabelValues("close", "rows").Inc()
	}
}
