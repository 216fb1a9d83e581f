// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package sessions

import (
	"math"
	"sort"

	"github.com/guildpulse/guildpulse/internal/models"
)

// observation is the engine's internal view of one snapshot within a group:
// when it was taken, how long it is believed valid, and (for voice data)
// which channel it was observed in.
type observation struct {
	ts       int64
	interval *float64
	channel  string // empty for activity data
}

// span is an open or closed accumulator over observations. end is kept as a
// float because effective intervals may be fractional (group medians);
// rounding happens once, at emission.
type span struct {
	channel string
	start   int64
	end     float64
}

// coalesce walks one group's observations in timestamp order and merges
// temporally adjacent ones into spans.
//
// The walk keeps a single open accumulator. For each subsequent
// observation, tolerance = 2 * max(previous interval, current interval);
// the observation merges when its gap from the previous one is within
// tolerance and (for voice data) it was observed in the accumulating
// channel. A channel change always closes the span regardless of gap - the
// check is against the open accumulator's channel, not a grouping key, so a
// subject bouncing A -> B -> A yields three spans even when every gap is
// tolerable.
//
// Equal-timestamp ties are processed in input order (the sort is stable);
// a tie has gap 0 and always merges within its channel.
func coalesce(group []observation, fallback float64) []span {
	if len(group) == 0 {
		return nil
	}

	sort.SliceStable(group, func(i, j int) bool { return group[i].ts < group[j].ts })

	intervals := make([]*float64, len(group))
	for i, o := range group {
		intervals[i] = o.interval
	}
	groupDefault := GroupDefault(intervals, fallback)

	var (
		spans   []span
		current span
		open    bool
		prev    observation
		prevIV  float64
	)

	emit := func() {
		// Degenerate spans are unreachable with validated intervals but
		// are dropped rather than trusted.
		if current.end > float64(current.start) {
			spans = append(spans, current)
		}
	}

	for _, o := range group {
		iv := EffectiveInterval(o.interval, groupDefault)
		snapshotEnd := float64(o.ts) + iv

		if !open {
			current = span{channel: o.channel, start: o.ts, end: snapshotEnd}
			open = true
		} else {
			gap := float64(o.ts - prev.ts)
			tolerance := 2 * math.Max(prevIV, iv)
			if o.channel == current.channel && gap <= tolerance {
				if snapshotEnd > current.end {
					current.end = snapshotEnd
				}
			} else {
				emit()
				current = span{channel: o.channel, start: o.ts, end: snapshotEnd}
			}
		}

		prev = o
		prevIV = iv
	}
	emit()

	return spans
}

// ReconstructVoice converts voice-presence snapshots into sessions.
//
// Snapshots are grouped per subject; within one subject's stream a channel
// change closes the open session (see coalesce). The emitted session's
// Activity is the channel it accumulated in.
func ReconstructVoice(snaps []models.VoiceSnapshot, opts Options) []models.Session {
	groups := make(map[string][]observation)
	for _, s := range snaps {
		groups[s.Subject] = append(groups[s.Subject], observation{
			ts:       s.Timestamp,
			interval: s.Interval,
			channel:  s.Channel,
		})
	}

	var out []models.Session
	for _, subject := range sortedKeys(groups) {
		for _, sp := range coalesce(groups[subject], opts.fallback()) {
			out = appendSession(out, models.Session{
				Subject:  subject,
				Activity: sp.channel,
			}, sp)
		}
	}
	return out
}

// ReconstructActivity converts game-activity snapshots into sessions.
//
// Grouping is per (subject, game, source): cross-source precedence is
// MergeActivity's job and must run before reconstruction, so the engine
// never merges observations from different sources into one session.
func ReconstructActivity(snaps []models.ActivitySnapshot, opts Options) []models.Session {
	type key struct {
		subject string
		game    string
		source  models.ObservationSource
	}

	groups := make(map[key][]observation)
	for _, s := range snaps {
		k := key{s.Subject, s.Game, s.Source}
		groups[k] = append(groups[k], observation{ts: s.Timestamp, interval: s.Interval})
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.subject != b.subject {
			return a.subject < b.subject
		}
		if a.game != b.game {
			return a.game < b.game
		}
		return a.source < b.source
	})

	var out []models.Session
	for _, k := range keys {
		for _, sp := range coalesce(groups[k], opts.fallback()) {
			out = appendSession(out, models.Session{
				Subject:  k.subject,
				Activity: k.game,
				Source:   k.source,
			}, sp)
		}
	}
	return out
}

// appendSession rounds a span's fractional end to whole seconds and appends
// the finished session, dropping it if rounding collapsed the interval.
func appendSession(out []models.Session, s models.Session, sp span) []models.Session {
	endTS := int64(math.Round(sp.end))
	if endTS <= sp.start {
		return out
	}
	s.StartTS = sp.start
	s.EndTS = endTS
	s.DurationSeconds = endTS - sp.start
	return append(out, s)
}

func sortedKeys(m map[string][]observation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
