// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleRoster = `{
  "guildIds": ["81384788765712384"],
  "people": [
    {"id": "p1", "name": "Alice", "discordId": "111", "steamId": "765001", "birthday": "24-12-1990"},
    {"id": "p2", "name": "Bob", "discordId": "222", "birthday": "1991-06-15"},
    {"id": "p3", "name": "Carol", "steamId": "765003", "birthday": "not-a-date"},
    {"id": "p4", "name": "Dave"}
  ]
}`

func loadSample(t *testing.T) *Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.json")
	if err := os.WriteFile(path, []byte(sampleRoster), 0o600); err != nil {
		t.Fatalf("failed to write roster file: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return r
}

func TestLoadRoster(t *testing.T) {
	r := loadSample(t)

	if got := r.GuildIDs(); len(got) != 1 || got[0] != "81384788765712384" {
		t.Errorf("GuildIDs = %v", got)
	}
	if got := len(r.People()); got != 4 {
		t.Errorf("People count = %d, want 4", got)
	}
	if got := r.SteamIDs(); len(got) != 2 {
		t.Errorf("SteamIDs = %v, want 2 entries", got)
	}
	if got := r.DiscordIDs(); len(got) != 2 {
		t.Errorf("DiscordIDs = %v, want 2 entries", got)
	}
}

func TestResolve(t *testing.T) {
	r := loadSample(t)

	tests := []struct {
		source, id, want string
	}{
		{"steam", "765001", "Alice"},
		{"discord", "111", "Alice"},
		{"discord", "222", "Bob"},
		{"steam", "999999", "999999"}, // unknown falls through to the raw ID
		{"discord", "999", "999"},
		{"other", "111", "111"}, // unknown source never resolves
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.source, tt.id); got != tt.want {
			t.Errorf("Resolve(%s, %s) = %s, want %s", tt.source, tt.id, got, tt.want)
		}
	}
}

func TestTracksDiscord(t *testing.T) {
	r := loadSample(t)
	if !r.TracksDiscord("111") {
		t.Error("expected 111 to be tracked")
	}
	if r.TracksDiscord("765001") {
		t.Error("steam ID must not match discord tracking")
	}
}

func TestBirthdayParsing(t *testing.T) {
	r := loadSample(t)

	// Alice (dd-mm-yyyy) and Bob (legacy yyyy-mm-dd) parse; Carol is skipped.
	if len(r.birthdays) != 2 {
		t.Fatalf("parsed %d birthdays, want 2: %+v", len(r.birthdays), r.birthdays)
	}

	from := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	got := r.BirthdaysBetween(from, to)
	if len(got) != 1 || got[0].Name != "Alice" {
		t.Errorf("BirthdaysBetween(Dec 2026) = %+v, want Alice only", got)
	}

	// Window spanning a year boundary picks up anniversaries next year.
	from = time.Date(2026, 12, 30, 0, 0, 0, 0, time.UTC)
	to = time.Date(2027, 7, 1, 0, 0, 0, 0, time.UTC)
	got = r.BirthdaysBetween(from, to)
	if len(got) != 1 || got[0].Name != "Bob" {
		t.Errorf("BirthdaysBetween(Jan-Jun 2027) = %+v, want Bob only", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing roster file")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed roster JSON")
	}
}
