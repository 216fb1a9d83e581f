// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package sessions reconstructs continuous activity sessions from raw
// presence snapshots.
//
// A snapshot asserts presence on the half-open window
// [timestamp, timestamp+interval). The engine groups snapshots by identity,
// sorts each group by timestamp, and coalesces temporally adjacent
// snapshots into sessions: two snapshots belong to the same session when
// the gap between their timestamps is at most twice the larger of their two
// validity windows. One missed poll therefore never fractures a session;
// two consecutive missed polls close it.
//
// The engine is a pure batch transform: no I/O, no errors, no state across
// calls. Re-running it over the same snapshot set yields the same session
// set.
package sessions

import (
	"math"
	"sort"
)

// DefaultPollInterval is the fallback validity window in seconds, matching
// the collector's expected poll cadence. Used only when a group contains no
// valid interval sample and the caller did not configure a default.
const DefaultPollInterval = 300

// Options configures a reconstruction pass.
type Options struct {
	// DefaultInterval is the system-wide fallback interval in seconds,
	// used for a group in which every snapshot's interval is absent or
	// malformed. Zero means DefaultPollInterval.
	DefaultInterval float64
}

func (o Options) fallback() float64 {
	if o.DefaultInterval > 0 {
		return o.DefaultInterval
	}
	return DefaultPollInterval
}

// validInterval reports whether v points to a usable validity window:
// present, finite, and strictly positive.
func validInterval(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}

// EffectiveInterval returns the validated form of a snapshot's nominal
// interval: the value itself when valid, otherwise groupDefault.
func EffectiveInterval(v *float64, groupDefault float64) float64 {
	if validInterval(v) {
		return *v
	}
	return groupDefault
}

// GroupDefault computes the data-driven default interval for one group:
// the median of all valid interval samples, or fallback when the group has
// none. The median is per group, not global, so the engine tolerates poll
// cadence changes over the lifetime of the data.
func GroupDefault(intervals []*float64, fallback float64) float64 {
	valid := make([]float64, 0, len(intervals))
	for _, v := range intervals {
		if validInterval(v) {
			valid = append(valid, *v)
		}
	}
	if len(valid) == 0 {
		return fallback
	}
	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 1 {
		return valid[mid]
	}
	return (valid[mid-1] + valid[mid]) / 2
}
