// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package api serves the GuildPulse HTTP API. Sessions returned by the
// timeline endpoints are reconstructed from snapshots on every request;
// nothing session-shaped is ever read from storage.
package api

import (
	"net/http"
	"time"

	"github.com/guildpulse/guildpulse/internal/database"
	"github.com/guildpulse/guildpulse/internal/metrics"
	"github.com/guildpulse/guildpulse/internal/models"
	"github.com/guildpulse/guildpulse/internal/sessions"
)

// Handler holds the dependencies of all API endpoints.
type Handler struct {
	db   *database.DB
	opts sessions.Options
}

// NewHandler creates the API handler set.
func NewHandler(db *database.DB, opts sessions.Options) *Handler {
	return &Handler{db: db, opts: opts}
}

// Health reports process and database liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "healthy"
	dbStatus := "up"
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "down"
	}
	respondSuccess(w, map[string]string{
		"status":   status,
		"database": dbStatus,
	}, start)
}

// TimelineVoice returns reconstructed voice sessions in the requested range.
func (h *Handler) TimelineVoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, to, ok := timeRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not exceed to", nil)
		return
	}

	snaps, err := h.db.GetVoiceActivity(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load voice activity", err)
		return
	}

	sess := h.reconstructVoice(snaps)
	respondSuccess(w, toTimeline(sess), start)
}

// TimelineGames returns reconstructed game sessions in the requested range.
// Steam and Discord observations are merged with Steam taking precedence
// before reconstruction.
func (h *Handler) TimelineGames(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, to, ok := timeRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not exceed to", nil)
		return
	}

	sess, err := h.gameSessions(r, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load game activity", err)
		return
	}
	respondSuccess(w, toTimeline(sess), start)
}

// TimelineChannels returns raw channel-occupancy snapshots in the
// requested range. Unlike the session timelines these are the stored poll
// ticks, suitable for plotting occupancy over time.
func (h *Handler) TimelineChannels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, to, ok := timeRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not exceed to", nil)
		return
	}

	snaps, err := h.db.GetChannelSnapshots(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load channel snapshots", err)
		return
	}
	if snaps == nil {
		snaps = []models.ChannelSnapshot{}
	}
	respondSuccess(w, snaps, start)
}

// LongestSessions ranks game sessions by duration, one entry per
// (game, subject, source), longest first.
func (h *Handler) LongestSessions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, to, ok := timeRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not exceed to", nil)
		return
	}
	limit := getIntParam(r, "limit", 10)
	if limit < 1 || limit > 100 {
		respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100", nil)
		return
	}

	sess, err := h.gameSessions(r, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load game activity", err)
		return
	}
	respondSuccess(w, sessions.RankLongest(sess, limit), start)
}

// Stats summarizes activity over the requested range.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, to, ok := timeRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_RANGE", "from must not exceed to", nil)
		return
	}
	ctx := r.Context()

	voiceTotal, err := h.db.VoiceSecondsTotal(ctx, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to aggregate voice activity", err)
		return
	}
	voiceAlone, err := h.db.VoiceSecondsAlone(ctx, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to aggregate voice activity", err)
		return
	}
	gaming, err := h.db.GamingSecondsTotal(ctx, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to aggregate game activity", err)
		return
	}
	uniqueUsers, err := h.db.UniqueActiveUsers(ctx, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to count active users", err)
		return
	}

	voiceSnaps, err := h.db.GetVoiceActivity(ctx, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load voice activity", err)
		return
	}
	voiceSessions := h.reconstructVoice(voiceSnaps)

	gameSessions, err := h.gameSessions(r, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to load game activity", err)
		return
	}

	summary := models.StatsSummary{
		From:              from,
		To:                to,
		VoiceSecondsTotal: voiceTotal,
		VoiceSecondsAlone: voiceAlone,
		GamingSeconds:     gaming,
		UniqueVoiceUsers:  int(uniqueUsers),
		VoiceSessions:     len(voiceSessions),
		GameSessions:      len(gameSessions),
	}
	if earliest, found, err := h.db.EarliestTimestamp(ctx); err == nil && found {
		summary.TrackingSince = &earliest
	}

	respondSuccess(w, summary, start)
}

// gameSessions loads both sources, merges with Steam precedence, and
// reconstructs sessions.
func (h *Handler) gameSessions(r *http.Request, from, to int64) ([]models.Session, error) {
	ctx := r.Context()
	steam, err := h.db.GetGameActivity(ctx, models.SourceSteam, from, to)
	if err != nil {
		return nil, err
	}
	discord, err := h.db.GetGameActivity(ctx, models.SourceDiscord, from, to)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sess := sessions.ReconstructActivity(sessions.MergeActivity(steam, discord), h.opts)
	metrics.ReconstructionDuration.WithLabelValues("game").Observe(time.Since(start).Seconds())
	metrics.SessionsReconstructed.WithLabelValues("game").Add(float64(len(sess)))
	return sess, nil
}

func (h *Handler) reconstructVoice(snaps []models.VoiceSnapshot) []models.Session {
	start := time.Now()
	sess := sessions.ReconstructVoice(snaps, h.opts)
	metrics.ReconstructionDuration.WithLabelValues("voice").Observe(time.Since(start).Seconds())
	metrics.SessionsReconstructed.WithLabelValues("voice").Add(float64(len(sess)))
	return sess
}

// toTimeline renders sessions as API entries. Always returns a non-nil
// slice so empty results serialize as [] rather than null.
func toTimeline(sess []models.Session) []models.TimelineEntry {
	out := make([]models.TimelineEntry, 0, len(sess))
	for _, s := range sess {
		out = append(out, models.TimelineEntry{
			Name:            s.Subject,
			Activity:        s.Activity,
			Source:          s.Source,
			StartTS:         s.StartTS,
			EndTS:           s.EndTS,
			DurationSeconds: s.DurationSeconds,
		})
	}
	return out
}

