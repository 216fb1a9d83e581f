// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package services

import (
	"context"
	"errors"
)

// Runner is the lifecycle the poller, event router, and newsletter
// scheduler already expose: block in Run until the context ends.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service. Returning the
// context's own error would make suture count a clean shutdown as a
// failure, so cancellation is mapped to nil.
type RunnerService struct {
	runner Runner
	name   string
}

func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// String identifies the service in supervisor logs.
func (s *RunnerService) String() string {
	return s.name
}
