// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package newsletter builds and delivers periodic community activity
// reports. Every figure is compared against the preceding period of the
// same length.
package newsletter

import (
	"github.com/guildpulse/guildpulse/internal/models"
)

// Change is the delta between a current and a past value. Percentage is
// nil when the past value was zero.
type Change struct {
	Absolute   int64    `json:"absolute"`
	Percentage *float64 `json:"percentage"`
}

// ValueStat compares one scalar across periods.
type ValueStat struct {
	Current int64  `json:"current"`
	Past    int64  `json:"past"`
	Change  Change `json:"change"`
}

// CompareValues builds a ValueStat from a current and past figure.
func CompareValues(current, past int64) ValueStat {
	return ValueStat{Current: current, Past: past, Change: change(current, past)}
}

func change(current, past int64) Change {
	c := Change{Absolute: current - past}
	if past != 0 {
		pct := float64(c.Absolute) / float64(past) * 100
		c.Percentage = &pct
	}
	return c
}

func changePtr(current int64, past *int64) *Change {
	if past == nil {
		return nil
	}
	c := change(current, *past)
	return &c
}

// ListEntry is one ranked row of a list statistic. PastSame compares the
// entry against its own past value; PastAtRank compares it against
// whoever held this rank last period.
type ListEntry struct {
	Name    string `json:"name"`
	Rank    int    `json:"rank"`
	Current int64  `json:"current_value"`

	PastSame       *int64 `json:"past_value_this"`
	PastAtRank     *int64 `json:"past_value_rank"`
	PastRankholder string `json:"past_rankholder,omitempty"`

	ChangeSame *Change `json:"change_this"`
	ChangeRank *Change `json:"change_rank"`
}

// ListStats compares a ranked list across periods.
type ListStats struct {
	Total   ValueStat   `json:"total"`
	Count   ValueStat   `json:"count"`
	Entries []ListEntry `json:"entries"`
}

// CompareLists builds list statistics. Both inputs must already be sorted
// by rank (descending value).
func CompareLists(current, past []models.NameValue) ListStats {
	var currentTotal, pastTotal int64
	for _, item := range current {
		currentTotal += item.Value
	}
	pastByName := make(map[string]int64, len(past))
	for _, item := range past {
		pastTotal += item.Value
		pastByName[item.Name] = item.Value
	}

	entries := make([]ListEntry, 0, len(current))
	for i, item := range current {
		entry := ListEntry{
			Name:    item.Name,
			Rank:    i + 1,
			Current: item.Value,
		}
		if v, ok := pastByName[item.Name]; ok {
			pastSame := v
			entry.PastSame = &pastSame
			entry.ChangeSame = changePtr(item.Value, &pastSame)
		}
		if i < len(past) {
			pastAtRank := past[i].Value
			entry.PastAtRank = &pastAtRank
			entry.PastRankholder = past[i].Name
			entry.ChangeRank = changePtr(item.Value, &pastAtRank)
		}
		entries = append(entries, entry)
	}

	return ListStats{
		Total:   CompareValues(currentTotal, pastTotal),
		Count:   CompareValues(int64(len(current)), int64(len(past))),
		Entries: entries,
	}
}

// SessionEntry is one ranked row of the longest-sessions statistic.
type SessionEntry struct {
	Game    string                   `json:"game_name"`
	Subject string                   `json:"user_name"`
	Source  models.ObservationSource `json:"source"`
	Rank    int                      `json:"rank"`
	Current int64                    `json:"current_value"`

	PastRankholder     string  `json:"past_rankholder,omitempty"`
	PastRankholderGame string  `json:"past_rankholder_game,omitempty"`
	ChangeRank         *Change `json:"change_rank"`
}

// SessionStats compares longest sessions across periods. Only rank-based
// comparison applies: a session has no identity across periods.
type SessionStats struct {
	Total   ValueStat      `json:"total"`
	Count   ValueStat      `json:"count"`
	Entries []SessionEntry `json:"entries"`
}

// CompareSessions builds session statistics from ranked leaderboards.
func CompareSessions(current, past []models.LeaderboardEntry) SessionStats {
	var currentTotal, pastTotal int64
	for _, e := range current {
		currentTotal += e.DurationSeconds
	}
	for _, e := range past {
		pastTotal += e.DurationSeconds
	}

	entries := make([]SessionEntry, 0, len(current))
	for i, e := range current {
		entry := SessionEntry{
			Game:    e.Game,
			Subject: e.Name,
			Source:  e.Source,
			Rank:    i + 1,
			Current: e.DurationSeconds,
		}
		if i < len(past) {
			pastAtRank := past[i].DurationSeconds
			entry.PastRankholder = past[i].Name
			entry.PastRankholderGame = past[i].Game
			entry.ChangeRank = changePtr(e.DurationSeconds, &pastAtRank)
		}
		entries = append(entries, entry)
	}

	return SessionStats{
		Total:   CompareValues(currentTotal, pastTotal),
		Count:   CompareValues(int64(len(current)), int64(len(past))),
		Entries: entries,
	}
}
