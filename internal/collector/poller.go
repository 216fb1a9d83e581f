// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package collector

import (
	"context"
	"time"

	"github.com/guildpulse/guildpulse/internal/logging"
	"github.com/guildpulse/guildpulse/internal/metrics"
)

// Poller drives all providers on a shared cadence and forwards their
// snapshots to the pipeline. Provider failures are logged and counted but
// never stop the loop; the next tick polls again.
type Poller struct {
	interval  time.Duration
	providers []Provider
	publisher SnapshotPublisher
	now       func() time.Time
}

// NewPoller creates a poller over the given providers.
func NewPoller(interval time.Duration, publisher SnapshotPublisher, providers ...Provider) *Poller {
	return &Poller{
		interval:  interval,
		providers: providers,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run polls immediately, then on every tick, until the context ends.
func (p *Poller) Run(ctx context.Context) error {
	logging.Info().Dur("interval", p.interval).Int("providers", len(p.providers)).Msg("Collector started")

	p.pollAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Collector stopped")
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	timestamp := AlignTimestamp(p.now(), p.interval)
	for _, provider := range p.providers {
		p.pollOne(ctx, provider, timestamp)
	}
}

func (p *Poller) pollOne(ctx context.Context, provider Provider, timestamp int64) {
	start := time.Now()
	batch, err := provider.Collect(ctx, timestamp)
	metrics.CollectorPollDuration.WithLabelValues(provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollectorPollErrors.WithLabelValues(provider.Name()).Inc()
		logging.Err(err).Str("provider", provider.Name()).Msg("Provider poll failed")
		return
	}
	if batch.Empty() {
		return
	}

	published := 0
	for _, s := range batch.Voice {
		if err := p.publisher.PublishVoice(s); err != nil {
			logging.Err(err).Str("provider", provider.Name()).Msg("Failed to publish voice snapshot")
			continue
		}
		metrics.SnapshotsCollected.WithLabelValues("voice", provider.Name()).Inc()
		published++
	}
	for _, s := range batch.Channels {
		if err := p.publisher.PublishChannel(s); err != nil {
			logging.Err(err).Str("provider", provider.Name()).Msg("Failed to publish channel snapshot")
			continue
		}
		metrics.SnapshotsCollected.WithLabelValues("channel", provider.Name()).Inc()
		published++
	}
	for _, s := range batch.Games {
		if err := p.publisher.PublishGame(s); err != nil {
			logging.Err(err).Str("provider", provider.Name()).Msg("Failed to publish game snapshot")
			continue
		}
		metrics.SnapshotsCollected.WithLabelValues("game", provider.Name()).Inc()
		published++
	}

	logging.Debug().Str("provider", provider.Name()).Int64("timestamp", timestamp).Int("snapshots", published).Msg("Poll complete")
}
