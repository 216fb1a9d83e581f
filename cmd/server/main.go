// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package main is the entry point for the GuildPulse server.
//
// GuildPulse tracks the presence of a gaming community across Discord and
// Steam: periodic snapshots of who is in voice and who is playing what are
// appended to DuckDB, and continuous sessions are reconstructed from those
// snapshots on demand. A REST API exposes timelines, leaderboards, and
// aggregate statistics; an optional newsletter posts a weekly or monthly
// recap to a Discord webhook.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (koanf v2)
//  2. Database: DuckDB snapshot store
//  3. Roster: the tracked-people file mapping platform IDs to names
//  4. Event pipeline: watermill pub/sub feeding the DuckDB appender
//  5. Collectors: Steam Web API poller (when enabled)
//  6. Newsletter: periodic recap delivery (when enabled)
//  7. HTTP server: REST API plus Prometheus metrics
//
// Everything long-running sits under a suture supervisor tree, one layer
// per concern, so a crashing poller never takes the API down.
//
// # Configuration
//
// Environment variables use the GUILDPULSE_ prefix with double underscores
// for nesting:
//
//	export GUILDPULSE_DATABASE__PATH=/data/guildpulse.duckdb
//	export GUILDPULSE_ROSTER__PATH=/data/people.json
//	export GUILDPULSE_COLLECTOR__STEAM__ENABLED=true
//	export GUILDPULSE_COLLECTOR__STEAM__API_KEY=your-steam-key
//	./guildpulse
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server drains
// in-flight requests, the pollers stop, and the event router flushes
// whatever the collectors already published.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/guildpulse/guildpulse/internal/api"
	"github.com/guildpulse/guildpulse/internal/collector"
	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/database"
	"github.com/guildpulse/guildpulse/internal/eventstream"
	"github.com/guildpulse/guildpulse/internal/identity"
	"github.com/guildpulse/guildpulse/internal/logging"
	"github.com/guildpulse/guildpulse/internal/newsletter"
	"github.com/guildpulse/guildpulse/internal/sessions"
	"github.com/guildpulse/guildpulse/internal/supervisor"
	"github.com/guildpulse/guildpulse/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("roster_path", cfg.Roster.Path).
		Bool("steam_enabled", cfg.Collector.Steam.Enabled).
		Bool("newsletter_enabled", cfg.Newsletter.Enabled).
		Msg("Starting GuildPulse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	roster, err := identity.Load(cfg.Roster.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load roster")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Event pipeline: collectors publish snapshots, the appender persists
	// them. The gochannel pub/sub is in-process; the router gives us retry
	// with backoff around DuckDB writes.
	wmLogger := eventstream.NewLoggerAdapter()
	pubsub := eventstream.NewPubSub(wmLogger)
	defer func() {
		if err := pubsub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pub/sub")
		}
	}()

	publisher := eventstream.NewPublisher(pubsub)
	defer publisher.Close()
	router, err := eventstream.NewRouter(eventstream.DefaultRouterConfig(), pubsub, eventstream.NewAppender(db), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build event router")
	}
	tree.AddPipelineService(services.NewRunnerService("event-router", router))

	// Collectors.
	if cfg.Collector.Enabled {
		var providers []collector.Provider
		if cfg.Collector.Steam.Enabled {
			providers = append(providers,
				collector.NewSteamProvider(&cfg.Collector.Steam, roster, cfg.DefaultIntervalSeconds()))
		}
		if len(providers) > 0 {
			poller := collector.NewPoller(cfg.Collector.PollInterval, publisher, providers...)
			tree.AddCollectionService(services.NewRunnerService("snapshot-poller", poller))
			logging.Info().
				Int("providers", len(providers)).
				Dur("poll_interval", cfg.Collector.PollInterval).
				Msg("Snapshot poller added to supervisor tree")
		} else {
			logging.Warn().Msg("Collector enabled but no providers configured")
		}
	}

	sessionOpts := sessions.Options{DefaultInterval: cfg.DefaultIntervalSeconds()}

	// Newsletter.
	if cfg.Newsletter.Enabled {
		builder := newsletter.NewBuilder(db, roster, sessionOpts, cfg.Newsletter.TopN, cfg.Newsletter.BaseURL)
		sender := newsletter.NewWebhookSender(cfg.Newsletter.WebhookURL, 0)
		scheduler := newsletter.NewScheduler(&cfg.Newsletter, builder, sender)
		tree.AddDeliveryService(services.NewRunnerService("newsletter-scheduler", scheduler))
		logging.Info().Str("cadence", cfg.Newsletter.Cadence).Msg("Newsletter scheduler added to supervisor tree")
	}

	// HTTP API.
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(api.NewHandler(db, sessionOpts), &cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("GuildPulse stopped gracefully")
}
