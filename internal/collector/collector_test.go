// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/identity"
	"github.com/guildpulse/guildpulse/internal/models"
)

func TestAlignTimestamp(t *testing.T) {
	cases := []struct {
		name     string
		unix     int64
		interval time.Duration
		want     int64
	}{
		{"exact multiple", 1500, 5 * time.Minute, 1500},
		{"floors down", 1799, 5 * time.Minute, 1500},
		{"just past boundary", 1801, 5 * time.Minute, 1800},
		{"zero interval falls back to raw", 1234, 0, 1234},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := AlignTimestamp(time.Unix(c.unix, 0), c.interval)
			if got != c.want {
				t.Errorf("AlignTimestamp(%d, %v) = %d, want %d", c.unix, c.interval, got, c.want)
			}
		})
	}
}

func writeRoster(t *testing.T, body string) *identity.Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	roster, err := identity.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return roster
}

func testSteamConfig(apiURL string) *config.SteamConfig {
	return &config.SteamConfig{
		Enabled:           true,
		APIKey:            "test-key",
		APIURL:            apiURL,
		RequestsPerSecond: 100,
		Burst:             10,
		Timeout:           5 * time.Second,
		BreakerFailures:   3,
		BreakerCooldown:   time.Second,
	}
}

func TestSteamProviderCollect(t *testing.T) {
	roster := writeRoster(t, `{
		"guildIds": ["g1"],
		"people": [
			{"id": "u1", "name": "Alice", "steamId": "7656111"},
			{"id": "u2", "name": "Bob", "steamId": "7656222"}
		]
	}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.URL.Query().Get("steamids"); got != "7656111,7656222" {
			t.Errorf("unexpected steamids %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": {"players": [
			{"steamid": "7656111", "personaname": "alice_gamer", "gameid": "427520", "gameextrainfo": "Factorio"},
			{"steamid": "7656222", "personaname": "bob"}
		]}}`))
	}))
	t.Cleanup(server.Close)

	provider := NewSteamProvider(testSteamConfig(server.URL), roster, 300)
	batch, err := provider.Collect(context.Background(), 1500)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// Only the player actually in a game produces a snapshot.
	if len(batch.Games) != 1 {
		t.Fatalf("expected 1 game snapshot, got %d", len(batch.Games))
	}
	got := batch.Games[0]
	if got.Subject != "Alice" {
		t.Errorf("subject = %q, want roster name Alice", got.Subject)
	}
	if got.Game != "Factorio" || got.Source != models.SourceSteam || got.Timestamp != 1500 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.Interval == nil || *got.Interval != 300 {
		t.Errorf("interval = %v, want 300", got.Interval)
	}
}

func TestSteamProviderEmptyRoster(t *testing.T) {
	roster := writeRoster(t, `{"guildIds": [], "people": []}`)

	// No HTTP server: with no Steam IDs the provider must not call out.
	provider := NewSteamProvider(testSteamConfig("http://127.0.0.1:1"), roster, 300)
	batch, err := provider.Collect(context.Background(), 1500)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !batch.Empty() {
		t.Errorf("expected empty batch, got %+v", batch)
	}
}

func TestSteamProviderServerError(t *testing.T) {
	roster := writeRoster(t, `{"guildIds": [], "people": [{"id": "u1", "name": "Alice", "steamId": "7656111"}]}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	provider := NewSteamProvider(testSteamConfig(server.URL), roster, 300)
	if _, err := provider.Collect(context.Background(), 1500); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

// fakePublisher records published snapshots.
type fakePublisher struct {
	voice    []models.VoiceSnapshot
	channels []models.ChannelSnapshot
	games    []models.ActivitySnapshot
}

func (f *fakePublisher) PublishVoice(s models.VoiceSnapshot) error { f.voice = append(f.voice, s); return nil }
func (f *fakePublisher) PublishChannel(s models.ChannelSnapshot) error {
	f.channels = append(f.channels, s)
	return nil
}
func (f *fakePublisher) PublishGame(s models.ActivitySnapshot) error { f.games = append(f.games, s); return nil }

// fakeProvider returns a fixed batch stamped with the given timestamp.
type fakeProvider struct {
	name  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Collect(_ context.Context, timestamp int64) (Batch, error) {
	f.calls++
	if f.err != nil {
		return Batch{}, f.err
	}
	return Batch{
		Voice: []models.VoiceSnapshot{{Timestamp: timestamp, Subject: "alice", Channel: "General", GuildID: "g1"}},
		Games: []models.ActivitySnapshot{{Timestamp: timestamp, Subject: "alice", Game: "Chess", Source: models.SourceDiscord}},
	}, nil
}

func TestPollerPublishesBatches(t *testing.T) {
	pub := &fakePublisher{}
	prov := &fakeProvider{name: "fake"}
	poller := NewPoller(5*time.Minute, pub, prov)
	poller.now = func() time.Time { return time.Unix(1799, 0) }

	poller.pollAll(context.Background())

	if prov.calls != 1 {
		t.Fatalf("provider called %d times, want 1", prov.calls)
	}
	if len(pub.voice) != 1 || len(pub.games) != 1 {
		t.Fatalf("published voice=%d games=%d, want 1 each", len(pub.voice), len(pub.games))
	}
	if pub.voice[0].Timestamp != 1500 {
		t.Errorf("snapshot timestamp = %d, want aligned 1500", pub.voice[0].Timestamp)
	}
}

func TestPollerSurvivesProviderError(t *testing.T) {
	pub := &fakePublisher{}
	failing := &fakeProvider{name: "down", err: context.DeadlineExceeded}
	healthy := &fakeProvider{name: "up"}
	poller := NewPoller(time.Minute, pub, failing, healthy)

	poller.pollAll(context.Background())

	if healthy.calls != 1 {
		t.Errorf("healthy provider not polled after failing one")
	}
	if len(pub.voice) != 1 {
		t.Errorf("healthy provider snapshots not published")
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	poller := NewPoller(time.Hour, &fakePublisher{}, &fakeProvider{name: "fake"})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- poller.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
