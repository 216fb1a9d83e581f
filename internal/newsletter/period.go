// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"fmt"
	"time"
)

// Window is a half-open [Start, End) reporting period.
type Window struct {
	Start time.Time
	End   time.Time
}

// FromTS and ToTS return the window bounds as epoch seconds for queries.
func (w Window) FromTS() int64 { return w.Start.Unix() }
func (w Window) ToTS() int64   { return w.End.Unix() - 1 }

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WeeklyWindows returns the most recently completed ISO week and the week
// before it. Weeks run Monday 00:00 to the following Monday 00:00.
func WeeklyWindows(now time.Time) (current, past Window) {
	// Walk back to the Monday of the week containing now.
	weekday := int(now.Weekday())
	if weekday == 0 { // Sunday
		weekday = 7
	}
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weekday - 1))

	current = Window{Start: monday.AddDate(0, 0, -7), End: monday}
	past = Window{Start: monday.AddDate(0, 0, -14), End: current.Start}
	return current, past
}

// MonthlyWindows returns the most recently completed calendar month and
// the month before it.
func MonthlyWindows(now time.Time) (current, past Window) {
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	firstOfPrev := firstOfThis.AddDate(0, -1, 0)
	firstBefore := firstOfThis.AddDate(0, -2, 0)

	current = Window{Start: firstOfPrev, End: firstOfThis}
	past = Window{Start: firstBefore, End: firstOfPrev}
	return current, past
}

// PeriodKey identifies a window for delivery deduplication:
// "2026-W34" for weekly cadence, "2026-07" for monthly.
func PeriodKey(cadence string, w Window) string {
	if cadence == "monthly" {
		return w.Start.Format("2006-01")
	}
	year, week := w.Start.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
