// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package identity resolves platform-specific user IDs to canonical display
// names via the roster file.
//
// The roster is a JSON document listing the guilds to track and the people
// being tracked, keyed by their Discord and Steam IDs:
//
//	{
//	  "guildIds": ["81384788765712384"],
//	  "people": [
//	    {"id": "p1", "name": "Alice", "discordId": "123", "steamId": "7656...", "birthday": "24-12-1990"}
//	  ]
//	}
//
// Resolution does not affect session boundaries - grouping happens on raw
// platform IDs consistently across one reconstruction pass, and names are
// applied afterwards for display.
package identity

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/guildpulse/guildpulse/internal/logging"
)

// Person is one tracked roster entry.
type Person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DiscordID string `json:"discordId,omitempty"`
	SteamID   string `json:"steamId,omitempty"`
	// Birthday is dd-mm-yyyy; empty or malformed values are skipped.
	Birthday string `json:"birthday,omitempty"`
}

// Birthday is a parsed roster birthday.
type Birthday struct {
	Name string
	Date time.Time
}

// rosterFile is the on-disk document shape.
type rosterFile struct {
	GuildIDs []string `json:"guildIds"`
	People   []Person `json:"people"`
}

// Roster holds the loaded roster with lookup maps built once at load time.
type Roster struct {
	guildIDs  []string
	people    []Person
	byDiscord map[string]string // discordId -> name
	bySteam   map[string]string // steamId -> name
	birthdays []Birthday
}

// Load reads and parses the roster file at path.
func Load(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}

	var doc rosterFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}

	r := &Roster{
		guildIDs:  doc.GuildIDs,
		people:    doc.People,
		byDiscord: make(map[string]string, len(doc.People)),
		bySteam:   make(map[string]string, len(doc.People)),
	}
	for _, p := range doc.People {
		if p.DiscordID != "" && p.Name != "" {
			r.byDiscord[p.DiscordID] = p.Name
		}
		if p.SteamID != "" && p.Name != "" {
			r.bySteam[p.SteamID] = p.Name
		}
		if bd, ok := parseBirthday(p.Birthday); ok {
			r.birthdays = append(r.birthdays, Birthday{Name: p.Name, Date: bd})
		} else if p.Birthday != "" {
			logging.Warn().Str("person", p.Name).Str("birthday", p.Birthday).Msg("Skipping malformed roster birthday")
		}
	}

	logging.Info().Int("people", len(r.people)).Int("guilds", len(r.guildIDs)).Str("path", path).Msg("Roster loaded")
	return r, nil
}

// parseBirthday accepts dd-mm-yyyy, plus yyyy-mm-dd for legacy entries.
func parseBirthday(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GuildIDs returns the Discord guilds to track.
func (r *Roster) GuildIDs() []string { return r.guildIDs }

// People returns all roster entries.
func (r *Roster) People() []Person { return r.people }

// SteamIDs returns the set of tracked Steam IDs.
func (r *Roster) SteamIDs() []string {
	ids := make([]string, 0, len(r.bySteam))
	for _, p := range r.people {
		if p.SteamID != "" {
			ids = append(ids, p.SteamID)
		}
	}
	return ids
}

// DiscordIDs returns the set of tracked Discord IDs.
func (r *Roster) DiscordIDs() []string {
	ids := make([]string, 0, len(r.byDiscord))
	for _, p := range r.people {
		if p.DiscordID != "" {
			ids = append(ids, p.DiscordID)
		}
	}
	return ids
}

// TracksDiscord reports whether the given Discord ID is on the roster.
func (r *Roster) TracksDiscord(discordID string) bool {
	_, ok := r.byDiscord[discordID]
	return ok
}

// ResolveSteam returns the display name for a Steam ID, or the raw ID when
// the person is not on the roster.
func (r *Roster) ResolveSteam(steamID string) string {
	if name, ok := r.bySteam[steamID]; ok {
		return name
	}
	return steamID
}

// ResolveDiscord returns the display name for a Discord ID, or the raw ID.
func (r *Roster) ResolveDiscord(discordID string) string {
	if name, ok := r.byDiscord[discordID]; ok {
		return name
	}
	return discordID
}

// Resolve picks the resolver matching the snapshot's observation source.
func (r *Roster) Resolve(source string, id string) string {
	switch source {
	case "steam":
		return r.ResolveSteam(id)
	case "discord":
		return r.ResolveDiscord(id)
	default:
		return id
	}
}

// BirthdaysBetween returns roster birthdays whose month/day anniversary
// falls in [from, to).
func (r *Roster) BirthdaysBetween(from, to time.Time) []Birthday {
	var out []Birthday
	for _, b := range r.birthdays {
		anniversary := time.Date(from.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, from.Location())
		if anniversary.Before(from) {
			anniversary = anniversary.AddDate(1, 0, 0)
		}
		if !anniversary.Before(from) && anniversary.Before(to) {
			out = append(out, b)
		}
	}
	return out
}
