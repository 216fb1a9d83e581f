// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package sessions

import "github.com/guildpulse/guildpulse/internal/models"

// MergeActivity collapses two parallel activity-snapshot streams into one.
//
// primary is the authoritative platform (Steam), secondary the
// presence-inferred fallback (Discord). For every (subject, timestamp) pair
// the primary stream reports, all secondary snapshots at that exact pair
// are discarded, even when they name a different game: the authoritative
// source is ground truth for the whole instant whenever it says anything at
// all. Secondary snapshots with no primary counterpart are kept, so the
// fallback fills gaps in authoritative coverage only.
//
// Pure function: inputs are not modified, empty inputs yield an empty
// output. Relative order within each input stream is preserved, primary
// rows first.
func MergeActivity(primary, secondary []models.ActivitySnapshot) []models.ActivitySnapshot {
	type instant struct {
		subject string
		ts      int64
	}

	claimed := make(map[instant]struct{}, len(primary))
	for _, s := range primary {
		claimed[instant{s.Subject, s.Timestamp}] = struct{}{}
	}

	merged := make([]models.ActivitySnapshot, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)
	for _, s := range secondary {
		if _, dup := claimed[instant{s.Subject, s.Timestamp}]; dup {
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
