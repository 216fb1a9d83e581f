// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package models

// NameValue is one row of a ranked aggregate (game -> seconds played,
// channel -> voice seconds, game -> peak concurrent players).
type NameValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}
