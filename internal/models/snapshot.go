// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package models defines the data structures shared across GuildPulse.
package models

// ObservationSource identifies the platform that produced an activity
// snapshot. Steam is the authoritative source (polled from the Web API);
// Discord activity is inferred from presence and only fills gaps in Steam
// coverage.
type ObservationSource string

const (
	SourceSteam   ObservationSource = "steam"
	SourceDiscord ObservationSource = "discord"
)

// VoiceSnapshot is one poll-tick observation of a subject sitting in a
// voice channel. It asserts presence on the half-open window
// [Timestamp, Timestamp+interval).
type VoiceSnapshot struct {
	Timestamp int64  `json:"timestamp"` // epoch seconds, aligned to the poll boundary
	Subject   string `json:"subject"`   // canonical user identifier
	Channel   string `json:"channel"`
	GuildID   string `json:"guild_id"`

	// Interval is the expected seconds of validity for this snapshot.
	// Nil for historical rows recorded before the column existed; the
	// sessions package substitutes a group default for nil or malformed
	// values.
	Interval *float64 `json:"interval,omitempty"`
}

// ActivitySnapshot is one poll-tick observation of a subject playing a game,
// tagged with the platform that reported it.
type ActivitySnapshot struct {
	Timestamp int64             `json:"timestamp"`
	Subject   string            `json:"subject"`
	Game      string            `json:"game"`
	Source    ObservationSource `json:"source"`
	Interval  *float64          `json:"interval,omitempty"`
}

// ChannelSnapshot is one poll-tick observation of a voice channel's
// occupancy, used for channel-level aggregates (busiest channels, voice
// time together vs alone).
type ChannelSnapshot struct {
	Timestamp    int64    `json:"timestamp"`
	Channel      string   `json:"channel"`
	GuildID      string   `json:"guild_id"`
	UserCount    int      `json:"user_count"`
	TrackedUsers int      `json:"tracked_users"`
	Interval     *float64 `json:"interval,omitempty"`
}

// Interval pointer helper for building snapshots in callers and tests.
func IntervalSeconds(v float64) *float64 { return &v }
