// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package models

// Session is a derived, maximal, contiguous presence interval for one
// (subject, activity) pair, reconstructed from snapshots. Sessions are pure
// derived data: recomputed on every query, never persisted, never mutated
// after emission. Invariant: EndTS > StartTS.
type Session struct {
	Subject  string `json:"subject"`
	Activity string `json:"activity"` // channel name for voice, game title for activity

	// Source is set for game sessions (which platform observed the play)
	// and empty for voice sessions.
	Source ObservationSource `json:"source,omitempty"`

	StartTS int64 `json:"start_ts"`
	EndTS   int64 `json:"end_ts"`

	// DurationSeconds is always EndTS - StartTS, carried explicitly so
	// consumers never recompute it inconsistently.
	DurationSeconds int64 `json:"duration_seconds"`
}

// Duration returns EndTS - StartTS. Kept alongside the stored field so
// freshly-built literals in tests can be checked against it.
func (s Session) Duration() int64 { return s.EndTS - s.StartTS }

// Overlaps reports whether two sessions overlap in [StartTS, EndTS).
func (s Session) Overlaps(o Session) bool {
	return s.StartTS < o.EndTS && o.StartTS < s.EndTS
}
