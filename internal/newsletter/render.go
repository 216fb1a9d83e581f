// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"fmt"
	"strings"
	"text/template"
)

const editionTemplate = `**GuildPulse {{title .Cadence}} Recap — {{.PeriodLabel}}**

**Voice**
Time in voice together: {{duration .VoiceTogether.Current}}{{delta .VoiceTogether}}
Time spent alone: {{duration .VoiceAlone.Current}}{{delta .VoiceAlone}}
Active members: {{.ActiveUsers.Current}}{{countDelta .ActiveUsers}}

**Gaming**
Total playtime: {{duration .GamingTotal.Current}}{{delta .GamingTotal}}
{{- if .MostPlaytime.Entries}}

**Most played**
{{- range .MostPlaytime.Entries}}
{{.Rank}}. {{.Name}} — {{duration .Current}}{{listDelta .}}
{{- end}}
{{- end}}
{{- if .BiggestGroups.Entries}}

**Biggest groups**
{{- range .BiggestGroups.Entries}}
{{.Rank}}. {{.Name}} — {{.Current}} players
{{- end}}
{{- end}}
{{- if .BusiestChannels.Entries}}

**Busiest channels**
{{- range .BusiestChannels.Entries}}
{{.Rank}}. {{.Name}} — {{duration .Current}}{{listDelta .}}
{{- end}}
{{- end}}
{{- if .LongestSessions.Entries}}

**Longest sessions**
{{- range .LongestSessions.Entries}}
{{.Rank}}. {{.Subject}} — {{.Game}} for {{duration .Current}}{{sessionDelta .}}
{{- end}}
{{- end}}
{{- if .Birthdays}}

**Upcoming birthdays**
{{- range .Birthdays}}
🎂 {{.Name}} on {{.Date.Format "Jan 2"}}
{{- end}}
{{- end}}
{{- if .BaseURL}}

Full timeline at {{.BaseURL}}
{{- end}}`

var editionTmpl = template.Must(template.New("edition").Funcs(template.FuncMap{
	"duration":     HumanDuration,
	"delta":        valueDelta,
	"countDelta":   countDelta,
	"listDelta":    listDelta,
	"sessionDelta": sessionDelta,
	"title":        titleCase,
}).Parse(editionTemplate))

// Render produces the newsletter body for a Discord embed description.
func Render(r *Report) (string, error) {
	var buf strings.Builder
	if err := editionTmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("rendering newsletter: %w", err)
	}
	return buf.String(), nil
}

// HumanDuration renders seconds as the largest two units, e.g.
// "2 days 3 hours", "45 minutes", "0 seconds".
func HumanDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	units := []struct {
		name string
		size int64
	}{
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}
	var parts []string
	remaining := seconds
	for _, u := range units {
		if len(parts) == 2 {
			break
		}
		n := remaining / u.size
		if n == 0 && len(parts) == 0 && u.size > 1 {
			continue
		}
		if n > 0 || (u.size == 1 && len(parts) == 0) {
			parts = append(parts, fmt.Sprintf("%d %s", n, plural(u.name, n)))
			remaining -= n * u.size
		}
	}
	return strings.Join(parts, " ")
}

func plural(unit string, n int64) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func valueDelta(v ValueStat) string {
	if v.Past == 0 {
		return ""
	}
	return deltaSuffix(v.Change, true)
}

func countDelta(v ValueStat) string {
	if v.Past == 0 {
		return ""
	}
	return deltaSuffix(v.Change, false)
}

func listDelta(e ListEntry) string {
	if e.ChangeSame == nil || e.PastSame == nil {
		return " (new)"
	}
	return deltaSuffix(*e.ChangeSame, true)
}

func sessionDelta(e SessionEntry) string {
	if e.ChangeRank == nil {
		return ""
	}
	return deltaSuffix(*e.ChangeRank, true)
}

func deltaSuffix(c Change, asDuration bool) string {
	if c.Absolute == 0 {
		return ""
	}
	sign := "+"
	abs := c.Absolute
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	var amount string
	if asDuration {
		amount = HumanDuration(abs)
	} else {
		amount = fmt.Sprintf("%d", abs)
	}
	if c.Percentage != nil {
		return fmt.Sprintf(" (%s%s, %+.0f%%)", sign, amount, *c.Percentage)
	}
	return fmt.Sprintf(" (%s%s)", sign, amount)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
