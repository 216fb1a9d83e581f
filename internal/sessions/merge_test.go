// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package sessions

import (
	"testing"

	"github.com/guildpulse/guildpulse/internal/models"
)

func TestMergePrimaryWinsExactInstant(t *testing.T) {
	primary := []models.ActivitySnapshot{
		gameSnap(100, "u1", "Factorio", models.SourceSteam, iv(300)),
	}
	secondary := []models.ActivitySnapshot{
		// Same subject and instant, different game title: still discarded.
		gameSnap(100, "u1", "Dota 2", models.SourceDiscord, iv(300)),
	}

	got := MergeActivity(primary, secondary)
	if len(got) != 1 {
		t.Fatalf("got %d snapshots, want 1: %+v", len(got), got)
	}
	if got[0].Source != models.SourceSteam || got[0].Game != "Factorio" {
		t.Errorf("merged row = %+v, want the primary's Factorio row", got[0])
	}
}

func TestMergeSecondaryFillsGaps(t *testing.T) {
	primary := []models.ActivitySnapshot{
		gameSnap(0, "u1", "Factorio", models.SourceSteam, iv(300)),
		gameSnap(600, "u1", "Factorio", models.SourceSteam, iv(300)),
	}
	secondary := []models.ActivitySnapshot{
		gameSnap(300, "u1", "Factorio", models.SourceDiscord, iv(300)), // gap in steam coverage: kept
		gameSnap(600, "u1", "Factorio", models.SourceDiscord, iv(300)), // steam reported this instant: dropped
		gameSnap(0, "u2", "Dota 2", models.SourceDiscord, iv(300)),     // different subject: kept
	}

	got := MergeActivity(primary, secondary)
	if len(got) != 4 {
		t.Fatalf("got %d snapshots, want 4: %+v", len(got), got)
	}

	discordCount := 0
	for _, s := range got {
		if s.Source == models.SourceDiscord {
			discordCount++
			if s.Subject == "u1" && s.Timestamp == 600 {
				t.Errorf("discord row at a steam-claimed instant survived: %+v", s)
			}
		}
	}
	if discordCount != 2 {
		t.Errorf("kept %d discord rows, want 2", discordCount)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if got := MergeActivity(nil, nil); len(got) != 0 {
		t.Errorf("MergeActivity(nil, nil) = %+v, want empty", got)
	}

	secondary := []models.ActivitySnapshot{gameSnap(0, "u1", "Factorio", models.SourceDiscord, iv(300))}
	got := MergeActivity(nil, secondary)
	if len(got) != 1 || got[0].Source != models.SourceDiscord {
		t.Errorf("empty primary should pass secondary through, got %+v", got)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	primary := []models.ActivitySnapshot{gameSnap(0, "u1", "Factorio", models.SourceSteam, iv(300))}
	secondary := []models.ActivitySnapshot{gameSnap(0, "u1", "Dota 2", models.SourceDiscord, iv(300))}

	_ = MergeActivity(primary, secondary)

	if secondary[0].Game != "Dota 2" || primary[0].Game != "Factorio" {
		t.Error("inputs were mutated by the merge")
	}
}
