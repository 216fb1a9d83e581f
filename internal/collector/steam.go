// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/identity"
	"github.com/guildpulse/guildpulse/internal/logging"
	"github.com/guildpulse/guildpulse/internal/models"
)

// maxSummaryIDs is the Steam Web API limit per GetPlayerSummaries call.
const maxSummaryIDs = 100

// playerSummary is the subset of the GetPlayerSummaries response we read.
type playerSummary struct {
	SteamID       string `json:"steamid"`
	PersonaName   string `json:"personaname"`
	GameExtraInfo string `json:"gameextrainfo"`
	GameID        string `json:"gameid"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []playerSummary `json:"players"`
	} `json:"response"`
}

// SteamProvider polls the Steam Web API for the current game of every
// rostered Steam account. Calls are rate limited and wrapped in a circuit
// breaker so a flapping API cannot pile up requests.
type SteamProvider struct {
	cfg      *config.SteamConfig
	roster   *identity.Roster
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]playerSummary]
	interval *float64
}

// NewSteamProvider builds a provider from configuration. The interval is
// recorded on every emitted snapshot so reconstruction knows the cadence
// each row was collected at.
func NewSteamProvider(cfg *config.SteamConfig, roster *identity.Roster, pollInterval float64) *SteamProvider {
	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]playerSummary](gobreaker.Settings{
		Name:    "steam-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
		},
	})

	return &SteamProvider{
		cfg:      cfg,
		roster:   roster,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:  breaker,
		interval: models.IntervalSeconds(pollInterval),
	}
}

// Name implements Provider.
func (p *SteamProvider) Name() string { return "steam" }

// Collect fetches player summaries for all rostered Steam IDs and emits a
// game snapshot for everyone currently in a game.
func (p *SteamProvider) Collect(ctx context.Context, timestamp int64) (Batch, error) {
	ids := p.roster.SteamIDs()
	if len(ids) == 0 {
		return Batch{}, nil
	}

	var batch Batch
	for start := 0; start < len(ids); start += maxSummaryIDs {
		end := min(start+maxSummaryIDs, len(ids))

		players, err := p.getPlayerSummaries(ctx, ids[start:end])
		if err != nil {
			return Batch{}, err
		}
		for _, player := range players {
			if player.GameExtraInfo == "" {
				continue
			}
			batch.Games = append(batch.Games, models.ActivitySnapshot{
				Timestamp: timestamp,
				Subject:   p.roster.ResolveSteam(player.SteamID),
				Game:      player.GameExtraInfo,
				Source:    models.SourceSteam,
				Interval:  p.interval,
			})
		}
	}
	return batch, nil
}

// getPlayerSummaries performs one rate-limited, breaker-protected API call.
func (p *SteamProvider) getPlayerSummaries(ctx context.Context, steamIDs []string) ([]playerSummary, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return p.breaker.Execute(func() ([]playerSummary, error) {
		endpoint := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v2/", strings.TrimRight(p.cfg.APIURL, "/"))
		query := url.Values{}
		query.Set("key", p.cfg.APIKey)
		query.Set("steamids", strings.Join(steamIDs, ","))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("steam api request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("steam api returned %d: %s", resp.StatusCode, string(body))
		}

		var parsed playerSummariesResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("decode steam response: %w", err)
		}
		return parsed.Response.Players, nil
	})
}
