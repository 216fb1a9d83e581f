// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package models

import "time"

// APIResponse is the standardized wrapper returned by every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries details on failure. Metadata is always present.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TimelineEntry is one rendered session row for timeline endpoints, with
// the subject resolved to a display name.
type TimelineEntry struct {
	Name            string            `json:"name"`
	Activity        string            `json:"activity"`
	Source          ObservationSource `json:"source,omitempty"`
	StartTS         int64             `json:"start_ts"`
	EndTS           int64             `json:"end_ts"`
	DurationSeconds int64             `json:"duration_seconds"`
}

// LeaderboardEntry is one row of the longest-sessions ranking.
type LeaderboardEntry struct {
	Rank            int               `json:"rank"`
	Name            string            `json:"name"`
	Game            string            `json:"game"`
	Source          ObservationSource `json:"source"`
	DurationSeconds int64             `json:"duration_seconds"`
}

// StatsSummary is the payload of the /stats endpoint.
type StatsSummary struct {
	From              int64 `json:"from"`
	To                int64 `json:"to"`
	VoiceSecondsTotal int64 `json:"voice_seconds_total"`
	VoiceSecondsAlone int64 `json:"voice_seconds_alone"`
	GamingSeconds     int64 `json:"gaming_seconds"`
	UniqueVoiceUsers  int   `json:"unique_voice_users"`
	VoiceSessions     int   `json:"voice_sessions"`
	GameSessions      int   `json:"game_sessions"`

	// TrackingSince is the oldest stored snapshot timestamp; nil while the
	// store is empty.
	TrackingSince *int64 `json:"tracking_since,omitempty"`
}
