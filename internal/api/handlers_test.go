// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/database"
	"github.com/guildpulse/guildpulse/internal/models"
	"github.com/guildpulse/guildpulse/internal/sessions"
)

func newTestServer(t *testing.T) (*database.DB, http.Handler) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	handler := NewHandler(db, sessions.Options{DefaultInterval: 300})
	router := NewRouter(handler, &config.ServerConfig{
		WriteTimeout:    30 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	})
	return db, router
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response from %s: %v (body: %s)", path, err, rec.Body.String())
	}
	return rec, &resp
}

func decodeData(t *testing.T, resp *models.APIResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec, resp := doGet(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTimelineVoice(t *testing.T) {
	db, router := newTestServer(t)
	ctx := context.Background()
	iv := models.IntervalSeconds(300)

	// Two coalescing alice snapshots and one bob snapshot.
	for _, s := range []models.VoiceSnapshot{
		{Timestamp: 1000, Subject: "alice", Channel: "General", GuildID: "g1", Interval: iv},
		{Timestamp: 1300, Subject: "alice", Channel: "General", GuildID: "g1", Interval: iv},
		{Timestamp: 1000, Subject: "bob", Channel: "AFK", GuildID: "g1", Interval: iv},
	} {
		if err := db.InsertVoiceActivity(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec, resp := doGet(t, router, "/api/v1/timeline/voice?from=0&to=2000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var entries []models.TimelineEntry
	decodeData(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("got %d sessions, want 2: %+v", len(entries), entries)
	}
	for _, e := range entries {
		switch e.Name {
		case "alice":
			if e.StartTS != 1000 || e.EndTS != 1600 || e.DurationSeconds != 600 {
				t.Errorf("alice session = %+v, want [1000,1600)", e)
			}
			if e.Activity != "General" {
				t.Errorf("alice channel = %q", e.Activity)
			}
		case "bob":
			if e.StartTS != 1000 || e.EndTS != 1300 {
				t.Errorf("bob session = %+v, want [1000,1300)", e)
			}
		default:
			t.Errorf("unexpected subject %q", e.Name)
		}
	}
}

func TestTimelineVoiceEmptyIsArray(t *testing.T) {
	_, router := newTestServer(t)

	rec, _ := doGet(t, router, "/api/v1/timeline/voice?from=0&to=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// Empty result must serialize as [], not null.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(envelope.Data) != "[]" {
		t.Errorf("data = %s, want []", envelope.Data)
	}
}

func TestTimelineGamesMergesSources(t *testing.T) {
	db, router := newTestServer(t)
	ctx := context.Background()
	iv := models.IntervalSeconds(300)

	// Discord claims alice at 1000 with a different game, but steam holds
	// the same (subject, timestamp) and wins.
	for _, s := range []models.ActivitySnapshot{
		{Timestamp: 1000, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
		{Timestamp: 1000, Subject: "alice", Game: "Chess", Source: models.SourceDiscord, Interval: iv},
		{Timestamp: 1300, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
	} {
		if err := db.InsertGameActivity(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec, resp := doGet(t, router, "/api/v1/timeline/games?from=0&to=2000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var entries []models.TimelineEntry
	decodeData(t, resp, &entries)
	if len(entries) != 1 {
		t.Fatalf("got %d sessions, want 1 (discord row shadowed): %+v", len(entries), entries)
	}
	got := entries[0]
	if got.Activity != "Factorio" || got.Source != models.SourceSteam {
		t.Errorf("session = %+v, want steam Factorio", got)
	}
	if got.StartTS != 1000 || got.EndTS != 1600 {
		t.Errorf("bounds = [%d,%d), want [1000,1600)", got.StartTS, got.EndTS)
	}
}

func TestLongestSessions(t *testing.T) {
	db, router := newTestServer(t)
	ctx := context.Background()
	iv := models.IntervalSeconds(300)

	// alice plays two separate Factorio sessions; the leaderboard keeps
	// only her longest. bob has one short Chess session.
	rows := []models.ActivitySnapshot{
		{Timestamp: 0, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
		{Timestamp: 300, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
		{Timestamp: 600, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
		// Gap > tolerance: second, shorter session.
		{Timestamp: 10000, Subject: "alice", Game: "Factorio", Source: models.SourceSteam, Interval: iv},
		{Timestamp: 0, Subject: "bob", Game: "Chess", Source: models.SourceDiscord, Interval: iv},
	}
	for _, s := range rows {
		if err := db.InsertGameActivity(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec, resp := doGet(t, router, "/api/v1/sessions/longest?from=0&to=20000&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var entries []models.LeaderboardEntry
	decodeData(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Name != "alice" || entries[0].Game != "Factorio" || entries[0].DurationSeconds != 900 {
		t.Errorf("first entry = %+v, want alice Factorio 900s", entries[0])
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Errorf("ranks = %d,%d", entries[0].Rank, entries[1].Rank)
	}
	if entries[1].Name != "bob" || entries[1].DurationSeconds != 300 {
		t.Errorf("second entry = %+v, want bob 300s", entries[1])
	}
}

func TestStats(t *testing.T) {
	db, router := newTestServer(t)
	ctx := context.Background()
	iv := models.IntervalSeconds(300)

	if err := db.InsertChannelSnapshot(ctx, models.ChannelSnapshot{
		Timestamp: 1000, Channel: "General", GuildID: "g1", UserCount: 2, TrackedUsers: 2, Interval: iv,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.InsertVoiceActivity(ctx, models.VoiceSnapshot{
		Timestamp: 1000, Subject: "alice", Channel: "General", GuildID: "g1", Interval: iv,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.InsertGameActivity(ctx, models.ActivitySnapshot{
		Timestamp: 1000, Subject: "bob", Game: "Chess", Source: models.SourceDiscord, Interval: iv,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec, resp := doGet(t, router, "/api/v1/stats?from=0&to=2000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var stats models.StatsSummary
	decodeData(t, resp, &stats)
	if stats.VoiceSecondsTotal != 600 {
		t.Errorf("VoiceSecondsTotal = %d, want 600", stats.VoiceSecondsTotal)
	}
	if stats.GamingSeconds != 300 {
		t.Errorf("GamingSeconds = %d, want 300", stats.GamingSeconds)
	}
	if stats.UniqueVoiceUsers != 1 {
		t.Errorf("UniqueVoiceUsers = %d, want 1", stats.UniqueVoiceUsers)
	}
	if stats.VoiceSessions != 1 || stats.GameSessions != 1 {
		t.Errorf("sessions = %d/%d, want 1/1", stats.VoiceSessions, stats.GameSessions)
	}
	if stats.TrackingSince == nil || *stats.TrackingSince != 1000 {
		t.Errorf("TrackingSince = %v, want 1000", stats.TrackingSince)
	}
}

func TestTimelineChannels(t *testing.T) {
	db, router := newTestServer(t)
	ctx := context.Background()
	iv := models.IntervalSeconds(300)

	for _, s := range []models.ChannelSnapshot{
		{Timestamp: 1000, Channel: "General", GuildID: "g1", UserCount: 3, TrackedUsers: 2, Interval: iv},
		{Timestamp: 1300, Channel: "Games", GuildID: "g1", UserCount: 1, TrackedUsers: 1, Interval: iv},
	} {
		if err := db.InsertChannelSnapshot(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec, resp := doGet(t, router, "/api/v1/timeline/channels?from=0&to=2000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var snaps []models.ChannelSnapshot
	decodeData(t, resp, &snaps)
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
	if snaps[0].Channel != "General" || snaps[0].UserCount != 3 {
		t.Errorf("first snapshot = %+v", snaps[0])
	}
}

func TestInvalidRange(t *testing.T) {
	_, router := newTestServer(t)

	for _, path := range []string{
		"/api/v1/timeline/voice?from=100&to=50",
		"/api/v1/timeline/games?from=100&to=50",
		"/api/v1/timeline/channels?from=100&to=50",
		"/api/v1/sessions/longest?from=100&to=50",
		"/api/v1/stats?from=100&to=50",
	} {
		rec, resp := doGet(t, router, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		if resp.Error == nil || resp.Error.Code != "INVALID_RANGE" {
			t.Errorf("%s: error = %+v", path, resp.Error)
		}
	}
}

func TestInvalidLimit(t *testing.T) {
	_, router := newTestServer(t)

	for _, limit := range []int{0, 101, -3} {
		rec, resp := doGet(t, router, fmt.Sprintf("/api/v1/sessions/longest?limit=%d", limit))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %d: status = %d, want 400", limit, rec.Code)
		}
		if resp.Error == nil || resp.Error.Code != "INVALID_LIMIT" {
			t.Errorf("limit %d: error = %+v", limit, resp.Error)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
