// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"context"
	"time"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/logging"
	"github.com/guildpulse/guildpulse/internal/metrics"
)

// Sender abstracts newsletter delivery so tests can capture editions.
type Sender interface {
	Send(ctx context.Context, body string) error
}

// Scheduler watches the clock and delivers one edition per completed
// period. On startup the current "previous period" is marked as already
// delivered, so a restart never re-sends an old edition; the scheduler
// only fires when a new period completes while it is running.
type Scheduler struct {
	cfg     *config.NewsletterConfig
	builder *Builder
	sender  Sender
	now     func() time.Time

	lastDelivered string
}

func NewScheduler(cfg *config.NewsletterConfig, builder *Builder, sender Sender) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		builder: builder,
		sender:  sender,
		now:     time.Now,
	}
}

func (s *Scheduler) windows(now time.Time) (current, past Window) {
	if s.cfg.Cadence == "monthly" {
		return MonthlyWindows(now)
	}
	return WeeklyWindows(now)
}

// Run loops until ctx is cancelled. Implements suture.Service.
func (s *Scheduler) Run(ctx context.Context) error {
	current, _ := s.windows(s.now())
	s.lastDelivered = PeriodKey(s.cfg.Cadence, current)

	logging.Info().
		Str("component", "newsletter").
		Str("cadence", s.cfg.Cadence).
		Str("baseline_period", s.lastDelivered).
		Dur("check_interval", s.cfg.CheckInterval).
		Msg("newsletter scheduler started")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	current, past := s.windows(s.now())
	key := PeriodKey(s.cfg.Cadence, current)
	if key == s.lastDelivered {
		return
	}
	if err := s.deliver(ctx, current, past); err != nil {
		logging.Err(err).
			Str("component", "newsletter").
			Str("period", key).
			Msg("newsletter delivery failed")
		metrics.NewsletterDeliveries.WithLabelValues(s.cfg.Cadence, "error").Inc()
		return
	}
	// Advance only on success so the next tick retries a failed edition.
	s.lastDelivered = key
}

func (s *Scheduler) deliver(ctx context.Context, current, past Window) error {
	report, err := s.builder.Build(ctx, s.cfg.Cadence, current, past)
	if err != nil {
		return err
	}
	if !report.HasActivity() {
		logging.Info().
			Str("component", "newsletter").
			Str("period", PeriodKey(s.cfg.Cadence, current)).
			Msg("skipping newsletter, no activity recorded")
		metrics.NewsletterDeliveries.WithLabelValues(s.cfg.Cadence, "skipped").Inc()
		return nil
	}
	body, err := Render(report)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, body); err != nil {
		return err
	}
	logging.Info().
		Str("component", "newsletter").
		Str("period", PeriodKey(s.cfg.Cadence, current)).
		Int("body_length", len(body)).
		Msg("newsletter delivered")
	metrics.NewsletterDeliveries.WithLabelValues(s.cfg.Cadence, "ok").Inc()
	return nil
}
