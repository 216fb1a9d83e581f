// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package eventstream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	"github.com/guildpulse/guildpulse/internal/database"
	"github.com/guildpulse/guildpulse/internal/metrics"
)

// Appender persists snapshot events into DuckDB.
type Appender struct {
	db *database.DB
}

// NewAppender creates an appender over the given database.
func NewAppender(db *database.DB) *Appender {
	return &Appender{db: db}
}

// Handle decodes one event and writes the wrapped snapshot. Errors are
// returned so the router's retry middleware can redeliver.
func (a *Appender) Handle(msg *message.Message) error {
	event, err := DeserializeEvent(msg.Payload)
	if err != nil {
		// Malformed payloads will never succeed on retry.
		metrics.EventsConsumed.WithLabelValues(msg.Metadata.Get("kind"), "error").Inc()
		return fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}

	ctx := msg.Context()
	topic := event.Topic()

	switch event.Kind {
	case KindVoice:
		err = a.db.InsertVoiceActivity(ctx, *event.Voice)
	case KindChannel:
		err = a.db.InsertChannelSnapshot(ctx, *event.Channel)
	case KindGame:
		err = a.db.InsertGameActivity(ctx, *event.Game)
	}
	if err != nil {
		metrics.EventsConsumed.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("persist event %s: %w", msg.UUID, err)
	}

	metrics.EventsConsumed.WithLabelValues(topic, "ok").Inc()
	return nil
}

// RouterConfig tunes the consumer-side Watermill router.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
	}
}

// Router subscribes the appender to all snapshot topics with recovery and
// retry middleware.
type Router struct {
	router *message.Router
}

// NewRouter builds the consumer router. One handler is registered per
// snapshot topic, all feeding the same appender.
func NewRouter(cfg RouterConfig, sub message.Subscriber, appender *Appender, logger watermill.LoggerAdapter) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddPlugin(plugin.SignalsHandler)
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          logger,
		}.Middleware,
	)

	for _, topic := range []string{TopicVoice, TopicChannel, TopicGame} {
		router.AddNoPublisherHandler(
			"appender_"+topic,
			topic,
			sub,
			appender.Handle,
		)
	}

	return &Router{router: router}, nil
}

// Run blocks until the context is cancelled or the router fails.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel closed once all handlers are started,
// letting callers wait before publishing.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close shuts the router down.
func (r *Router) Close() error {
	return r.router.Close()
}
