// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"context"
	"fmt"

	"github.com/guildpulse/guildpulse/internal/database"
	"github.com/guildpulse/guildpulse/internal/identity"
	"github.com/guildpulse/guildpulse/internal/models"
	"github.com/guildpulse/guildpulse/internal/sessions"
)

// Report holds everything a single newsletter edition needs: aggregate
// statistics for the completed period compared against the period before
// it, plus upcoming roster birthdays.
type Report struct {
	Cadence string
	Period  Window
	Past    Window

	VoiceTotal    ValueStat
	VoiceAlone    ValueStat
	VoiceTogether ValueStat

	GamingTotal     ValueStat
	MostPlaytime    ListStats
	BiggestGroups   ListStats
	BusiestChannels ListStats
	LongestSessions SessionStats

	ActiveUsers ValueStat

	Birthdays []identity.Birthday
	BaseURL   string
}

// Builder assembles reports from stored snapshots.
type Builder struct {
	db      *database.DB
	roster  *identity.Roster
	opts    sessions.Options
	topN    int
	baseURL string
}

func NewBuilder(db *database.DB, roster *identity.Roster, opts sessions.Options, topN int, baseURL string) *Builder {
	if topN <= 0 {
		topN = 5
	}
	return &Builder{db: db, roster: roster, opts: opts, topN: topN, baseURL: baseURL}
}

// Build produces the report for the given period pair.
func (b *Builder) Build(ctx context.Context, cadence string, current, past Window) (*Report, error) {
	cur, err := b.collectPeriod(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("collecting current period: %w", err)
	}
	prev, err := b.collectPeriod(ctx, past)
	if err != nil {
		return nil, fmt.Errorf("collecting past period: %w", err)
	}

	return &Report{
		Cadence:         cadence,
		Period:          current,
		Past:            past,
		VoiceTotal:      CompareValues(cur.voiceTotal, prev.voiceTotal),
		VoiceAlone:      CompareValues(cur.voiceAlone, prev.voiceAlone),
		VoiceTogether:   CompareValues(cur.voiceTogether, prev.voiceTogether),
		GamingTotal:     CompareValues(cur.gamingTotal, prev.gamingTotal),
		MostPlaytime:    truncateList(CompareLists(cur.playtime, prev.playtime), b.topN),
		BiggestGroups:   truncateList(CompareLists(cur.groups, prev.groups), b.topN),
		BusiestChannels: truncateList(CompareLists(cur.channels, prev.channels), b.topN),
		LongestSessions: CompareSessions(cur.longest, prev.longest),
		ActiveUsers:     CompareValues(cur.activeUsers, prev.activeUsers),
		Birthdays:       b.roster.BirthdaysBetween(current.End, current.End.AddDate(0, 0, upcomingBirthdayDays)),
		BaseURL:         b.baseURL,
	}, nil
}

// upcomingBirthdayDays is how far past the period end the birthday
// lookahead extends.
const upcomingBirthdayDays = 14

type periodData struct {
	voiceTotal    int64
	voiceAlone    int64
	voiceTogether int64
	gamingTotal   int64
	activeUsers   int64
	playtime      []models.NameValue
	groups        []models.NameValue
	channels      []models.NameValue
	longest       []models.LeaderboardEntry
}

func (b *Builder) collectPeriod(ctx context.Context, w Window) (*periodData, error) {
	from, to := w.FromTS(), w.ToTS()
	var (
		d   periodData
		err error
	)
	if d.voiceTotal, err = b.db.VoiceSecondsTotal(ctx, from, to); err != nil {
		return nil, err
	}
	if d.voiceAlone, err = b.db.VoiceSecondsAlone(ctx, from, to); err != nil {
		return nil, err
	}
	if d.voiceTogether, err = b.db.VoiceSecondsTogether(ctx, from, to); err != nil {
		return nil, err
	}
	if d.gamingTotal, err = b.db.GamingSecondsTotal(ctx, from, to); err != nil {
		return nil, err
	}
	if d.activeUsers, err = b.db.UniqueActiveUsers(ctx, from, to); err != nil {
		return nil, err
	}
	if d.playtime, err = b.db.PlaytimePerGame(ctx, from, to); err != nil {
		return nil, err
	}
	if d.groups, err = b.db.BiggestGroups(ctx, from, to); err != nil {
		return nil, err
	}
	if d.channels, err = b.db.BusiestChannels(ctx, from, to); err != nil {
		return nil, err
	}
	if d.longest, err = b.longestSessions(ctx, from, to); err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *Builder) longestSessions(ctx context.Context, from, to int64) ([]models.LeaderboardEntry, error) {
	steam, err := b.db.GetGameActivity(ctx, models.SourceSteam, from, to)
	if err != nil {
		return nil, err
	}
	discord, err := b.db.GetGameActivity(ctx, models.SourceDiscord, from, to)
	if err != nil {
		return nil, err
	}
	sess := sessions.ReconstructActivity(sessions.MergeActivity(steam, discord), b.opts)
	return sessions.RankLongest(sess, b.topN), nil
}

func truncateList(ls ListStats, n int) ListStats {
	if n > 0 && len(ls.Entries) > n {
		ls.Entries = ls.Entries[:n]
	}
	return ls
}

// HasActivity reports whether the period saw any recorded presence at all.
// Editions with nothing to say are skipped rather than delivered empty.
func (r *Report) HasActivity() bool {
	return r.VoiceTotal.Current > 0 || r.VoiceAlone.Current > 0 ||
		r.GamingTotal.Current > 0 || r.ActiveUsers.Current > 0
}

// PeriodLabel renders the covered span for the edition heading.
func (r *Report) PeriodLabel() string {
	last := r.Period.End.AddDate(0, 0, -1)
	if r.Cadence == "monthly" {
		return r.Period.Start.Format("January 2006")
	}
	return fmt.Sprintf("%s to %s",
		r.Period.Start.Format("Jan 2"), last.Format("Jan 2, 2006"))
}
