// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package collector polls presence providers on a fixed cadence and feeds
// the observed snapshots into the event pipeline.
package collector

import (
	"context"
	"time"

	"github.com/guildpulse/guildpulse/internal/models"
)

// Batch is the result of one provider poll.
type Batch struct {
	Voice    []models.VoiceSnapshot
	Channels []models.ChannelSnapshot
	Games    []models.ActivitySnapshot
}

// Empty reports whether the batch carries no snapshots.
func (b Batch) Empty() bool {
	return len(b.Voice) == 0 && len(b.Channels) == 0 && len(b.Games) == 0
}

// Provider observes one presence source. Collect is called once per poll
// tick with the aligned timestamp to stamp onto every snapshot.
type Provider interface {
	Name() string
	Collect(ctx context.Context, timestamp int64) (Batch, error)
}

// SnapshotPublisher is the pipeline-facing side of the poller.
type SnapshotPublisher interface {
	PublishVoice(models.VoiceSnapshot) error
	PublishChannel(models.ChannelSnapshot) error
	PublishGame(models.ActivitySnapshot) error
}

// AlignTimestamp floors t to a multiple of the poll interval. All
// snapshots of one tick share this timestamp, which is what lets the
// store group concurrent observations by equality.
func AlignTimestamp(t time.Time, interval time.Duration) int64 {
	step := int64(interval.Seconds())
	if step <= 0 {
		return t.Unix()
	}
	return t.Unix() - t.Unix()%step
}
