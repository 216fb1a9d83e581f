// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package eventstream carries collected snapshots from the pollers to the
// database appender over an in-process Watermill pub/sub. Decoupling the
// two means a slow DuckDB write never stalls a poll tick.
package eventstream

import (
	"github.com/google/uuid"

	"github.com/guildpulse/guildpulse/internal/models"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// Topics, one per snapshot kind.
const (
	TopicVoice   = "snapshots.voice"
	TopicChannel = "snapshots.channel"
	TopicGame    = "snapshots.game"
)

// Snapshot kinds carried in event metadata.
const (
	KindVoice   = "voice"
	KindChannel = "channel"
	KindGame    = "game"
)

// SnapshotEvent is the canonical message format on the pipeline. Exactly
// one of Voice, Channel or Game is set, matching Kind.
type SnapshotEvent struct {
	SchemaVersion int    `json:"schema_version"`
	EventID       string `json:"event_id"`
	Kind          string `json:"kind"`

	Voice   *models.VoiceSnapshot    `json:"voice,omitempty"`
	Channel *models.ChannelSnapshot  `json:"channel,omitempty"`
	Game    *models.ActivitySnapshot `json:"game,omitempty"`
}

// NewVoiceEvent wraps a voice snapshot in an event envelope.
func NewVoiceEvent(s models.VoiceSnapshot) *SnapshotEvent {
	return &SnapshotEvent{SchemaVersion: SchemaVersion, EventID: uuid.New().String(), Kind: KindVoice, Voice: &s}
}

// NewChannelEvent wraps a channel snapshot in an event envelope.
func NewChannelEvent(s models.ChannelSnapshot) *SnapshotEvent {
	return &SnapshotEvent{SchemaVersion: SchemaVersion, EventID: uuid.New().String(), Kind: KindChannel, Channel: &s}
}

// NewGameEvent wraps a game snapshot in an event envelope.
func NewGameEvent(s models.ActivitySnapshot) *SnapshotEvent {
	return &SnapshotEvent{SchemaVersion: SchemaVersion, EventID: uuid.New().String(), Kind: KindGame, Game: &s}
}

// Topic returns the topic this event belongs on.
func (e *SnapshotEvent) Topic() string {
	switch e.Kind {
	case KindVoice:
		return TopicVoice
	case KindChannel:
		return TopicChannel
	default:
		return TopicGame
	}
}

// Validate checks the envelope is internally consistent.
func (e *SnapshotEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	switch e.Kind {
	case KindVoice:
		if e.Voice == nil {
			return &ValidationError{Field: "voice", Message: "required for kind voice"}
		}
	case KindChannel:
		if e.Channel == nil {
			return &ValidationError{Field: "channel", Message: "required for kind channel"}
		}
	case KindGame:
		if e.Game == nil {
			return &ValidationError{Field: "game", Message: "required for kind game"}
		}
	default:
		return &ValidationError{Field: "kind", Message: "unknown kind " + e.Kind}
	}
	return nil
}

// ValidationError reports a malformed event envelope.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid snapshot event: " + e.Field + ": " + e.Message
}
