// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package config loads and validates GuildPulse configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional
// YAML file, then environment variables (highest priority). Environment
// variables use the GUILDPULSE_ prefix with double underscores for nesting:
// GUILDPULSE_SERVER__PORT=8080 maps to server.port.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for all GuildPulse components.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Collector  CollectorConfig  `koanf:"collector"`
	Roster     RosterConfig     `koanf:"roster"`
	Newsletter NewsletterConfig `koanf:"newsletter"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimitReqs requests per RateLimitWindow, enforced per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig configures the DuckDB snapshot store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads for DuckDB; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// CollectorConfig configures the presence poller.
type CollectorConfig struct {
	Enabled bool `koanf:"enabled"`

	// PollInterval is the cadence between polls. Snapshot timestamps are
	// aligned down to multiples of this interval, and its seconds value is
	// the system default interval handed to the session engine.
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=1s"`

	Steam SteamConfig `koanf:"steam"`
}

// SteamConfig configures the Steam Web API poller.
type SteamConfig struct {
	Enabled bool   `koanf:"enabled"`
	APIKey  string `koanf:"api_key"`
	APIURL  string `koanf:"api_url" validate:"omitempty,url"`

	// RequestsPerSecond caps outbound API calls; Burst allows short spikes.
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`

	// Circuit breaker: open after BreakerFailures consecutive failures,
	// retry after BreakerCooldown.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// RosterConfig locates the tracked-people roster file.
type RosterConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// NewsletterConfig configures periodic newsletter delivery.
type NewsletterConfig struct {
	Enabled bool `koanf:"enabled"`

	// Cadence is weekly or monthly. Weekly newsletters cover the previous
	// ISO week, monthly ones the previous calendar month.
	Cadence string `koanf:"cadence" validate:"oneof=weekly monthly"`

	// CheckInterval is how often the scheduler looks for a due window.
	CheckInterval time.Duration `koanf:"check_interval" validate:"gt=0"`

	WebhookURL string `koanf:"webhook_url" validate:"omitempty,url"`

	// BaseURL is linked at the bottom of each newsletter.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// TopN bounds ranked lists (most playtime, longest sessions).
	TopN int `koanf:"top_n" validate:"gte=1,lte=50"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/guildpulse.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Collector: CollectorConfig{
			Enabled:      true,
			PollInterval: 5 * time.Minute,
			Steam: SteamConfig{
				Enabled:           false,
				APIURL:            "https://api.steampowered.com",
				RequestsPerSecond: 1,
				Burst:             5,
				Timeout:           10 * time.Second,
				BreakerFailures:   5,
				BreakerCooldown:   time.Minute,
			},
		},
		Roster: RosterConfig{
			Path: "/data/people.json",
		},
		Newsletter: NewsletterConfig{
			Enabled:       false,
			Cadence:       "weekly",
			CheckInterval: time.Minute,
			TopN:          10,
		},
	}
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Collector.Steam.Enabled && c.Collector.Steam.APIKey == "" {
		return fmt.Errorf("collector.steam.api_key is required when the steam poller is enabled")
	}
	if c.Newsletter.Enabled && c.Newsletter.WebhookURL == "" {
		return fmt.Errorf("newsletter.webhook_url is required when the newsletter is enabled")
	}
	return nil
}

// DefaultIntervalSeconds is the system default snapshot interval handed to
// the session engine, derived from the poll cadence.
func (c *Config) DefaultIntervalSeconds() float64 {
	return c.Collector.PollInterval.Seconds()
}
