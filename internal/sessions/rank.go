// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package sessions

import (
	"sort"

	"github.com/guildpulse/guildpulse/internal/models"
)

// RankLongest keeps the single longest session per (activity, subject,
// source) and returns the top entries by duration. Ties break on subject
// then activity so the ranking is deterministic.
func RankLongest(sess []models.Session, limit int) []models.LeaderboardEntry {
	type key struct {
		activity string
		subject  string
		source   models.ObservationSource
	}
	best := make(map[key]models.Session)
	for _, s := range sess {
		k := key{s.Activity, s.Subject, s.Source}
		if cur, seen := best[k]; !seen || s.DurationSeconds > cur.DurationSeconds {
			best[k] = s
		}
	}

	ranked := make([]models.Session, 0, len(best))
	for _, s := range best {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DurationSeconds != ranked[j].DurationSeconds {
			return ranked[i].DurationSeconds > ranked[j].DurationSeconds
		}
		if ranked[i].Subject != ranked[j].Subject {
			return ranked[i].Subject < ranked[j].Subject
		}
		return ranked[i].Activity < ranked[j].Activity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]models.LeaderboardEntry, 0, len(ranked))
	for i, s := range ranked {
		out = append(out, models.LeaderboardEntry{
			Rank:            i + 1,
			Name:            s.Subject,
			Game:            s.Activity,
			Source:          s.Source,
			DurationSeconds: s.DurationSeconds,
		})
	}
	return out
}
