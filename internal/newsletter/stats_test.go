// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"testing"

	"github.com/guildpulse/guildpulse/internal/models"
)

func TestCompareValues(t *testing.T) {
	got := CompareValues(150, 100)
	if got.Change.Absolute != 50 {
		t.Errorf("absolute = %d, want 50", got.Change.Absolute)
	}
	if got.Change.Percentage == nil || *got.Change.Percentage != 50 {
		t.Errorf("percentage = %v, want 50", got.Change.Percentage)
	}
}

func TestCompareValuesZeroPast(t *testing.T) {
	got := CompareValues(100, 0)
	if got.Change.Absolute != 100 {
		t.Errorf("absolute = %d, want 100", got.Change.Absolute)
	}
	if got.Change.Percentage != nil {
		t.Errorf("percentage = %v, want nil when past is zero", *got.Change.Percentage)
	}
}

func TestCompareValuesDecrease(t *testing.T) {
	got := CompareValues(50, 200)
	if got.Change.Absolute != -150 {
		t.Errorf("absolute = %d, want -150", got.Change.Absolute)
	}
	if got.Change.Percentage == nil || *got.Change.Percentage != -75 {
		t.Errorf("percentage = %v, want -75", got.Change.Percentage)
	}
}

func TestCompareLists(t *testing.T) {
	current := []models.NameValue{
		{Name: "Factorio", Value: 600},
		{Name: "Chess", Value: 300},
		{Name: "Hades", Value: 100},
	}
	past := []models.NameValue{
		{Name: "Chess", Value: 500},
		{Name: "Factorio", Value: 400},
	}

	got := CompareLists(current, past)

	if got.Total.Current != 1000 || got.Total.Past != 900 {
		t.Errorf("total = %d/%d, want 1000/900", got.Total.Current, got.Total.Past)
	}
	if got.Count.Current != 3 || got.Count.Past != 2 {
		t.Errorf("count = %d/%d, want 3/2", got.Count.Current, got.Count.Past)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}

	// Factorio was rank 2 last period with 400; rank 1 was Chess at 500.
	first := got.Entries[0]
	if first.Rank != 1 || first.Name != "Factorio" {
		t.Fatalf("first entry = %+v", first)
	}
	if first.PastSame == nil || *first.PastSame != 400 {
		t.Errorf("PastSame = %v, want 400", first.PastSame)
	}
	if first.ChangeSame == nil || first.ChangeSame.Absolute != 200 {
		t.Errorf("ChangeSame = %+v, want +200", first.ChangeSame)
	}
	if first.PastRankholder != "Chess" || first.PastAtRank == nil || *first.PastAtRank != 500 {
		t.Errorf("rank comparison = %q/%v, want Chess/500", first.PastRankholder, first.PastAtRank)
	}
	if first.ChangeRank == nil || first.ChangeRank.Absolute != 100 {
		t.Errorf("ChangeRank = %+v, want +100", first.ChangeRank)
	}

	// Hades is new: no same-name comparison, and no rank 3 last period.
	third := got.Entries[2]
	if third.PastSame != nil || third.ChangeSame != nil {
		t.Errorf("new entry has past values: %+v", third)
	}
	if third.PastAtRank != nil || third.PastRankholder != "" {
		t.Errorf("new entry has rank comparison: %+v", third)
	}
}

func TestCompareSessions(t *testing.T) {
	current := []models.LeaderboardEntry{
		{Rank: 1, Name: "Alice", Game: "Factorio", Source: models.SourceSteam, DurationSeconds: 900},
		{Rank: 2, Name: "Bob", Game: "Chess", Source: models.SourceDiscord, DurationSeconds: 300},
	}
	past := []models.LeaderboardEntry{
		{Rank: 1, Name: "Bob", Game: "Hades", Source: models.SourceSteam, DurationSeconds: 600},
	}

	got := CompareSessions(current, past)

	if got.Total.Current != 1200 || got.Total.Past != 600 {
		t.Errorf("total = %d/%d, want 1200/600", got.Total.Current, got.Total.Past)
	}
	first := got.Entries[0]
	if first.PastRankholder != "Bob" || first.PastRankholderGame != "Hades" {
		t.Errorf("rankholder = %q playing %q, want Bob playing Hades",
			first.PastRankholder, first.PastRankholderGame)
	}
	if first.ChangeRank == nil || first.ChangeRank.Absolute != 300 {
		t.Errorf("ChangeRank = %+v, want +300", first.ChangeRank)
	}
	second := got.Entries[1]
	if second.ChangeRank != nil || second.PastRankholder != "" {
		t.Errorf("rank 2 had no past counterpart: %+v", second)
	}
}
