// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package eventstream

import (
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/guildpulse/guildpulse/internal/metrics"
	"github.com/guildpulse/guildpulse/internal/models"
)

// NewPubSub creates the in-process channel pub/sub both ends share.
// The buffer absorbs bursts of snapshots at a poll tick without blocking
// the collector on the appender.
func NewPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
}

// Publisher serializes snapshots into events and publishes them.
type Publisher struct {
	publisher message.Publisher
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{publisher: pub}
}

// PublishVoice publishes one voice snapshot.
func (p *Publisher) PublishVoice(s models.VoiceSnapshot) error {
	return p.publishEvent(NewVoiceEvent(s))
}

// PublishChannel publishes one channel-occupancy snapshot.
func (p *Publisher) PublishChannel(s models.ChannelSnapshot) error {
	return p.publishEvent(NewChannelEvent(s))
}

// PublishGame publishes one game snapshot.
func (p *Publisher) PublishGame(s models.ActivitySnapshot) error {
	return p.publishEvent(NewGameEvent(s))
}

func (p *Publisher) publishEvent(event *SnapshotEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("kind", event.Kind)

	topic := event.Topic()
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Close marks the publisher closed. The underlying pub/sub is owned and
// closed by the stream service, not here.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
