// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

// Package metrics provides Prometheus instrumentation for GuildPulse:
// collector polls, the snapshot event pipeline, DuckDB queries, session
// reconstruction, the HTTP API, and newsletter delivery.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collector metrics
	SnapshotsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_snapshots_collected_total",
			Help: "Total number of presence snapshots collected per kind and source",
		},
		[]string{"kind", "source"}, // kind: voice, channel, game
	)

	CollectorPollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildpulse_collector_poll_duration_seconds",
			Help:    "Duration of one collector poll cycle per provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CollectorPollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_collector_poll_errors_total",
			Help: "Total number of failed provider polls",
		},
		[]string{"provider"},
	)

	// Event pipeline metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_events_published_total",
			Help: "Total number of snapshot events published to the pipeline",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_events_consumed_total",
			Help: "Total number of snapshot events persisted by the appender",
		},
		[]string{"topic", "outcome"}, // outcome: ok, error
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildpulse_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Session engine metrics
	SessionsReconstructed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_sessions_reconstructed_total",
			Help: "Total number of sessions emitted by reconstruction passes",
		},
		[]string{"kind"}, // voice, game
	)

	ReconstructionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildpulse_session_reconstruction_duration_seconds",
			Help:    "Duration of one reconstruction pass",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildpulse_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Newsletter metrics
	NewsletterDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_newsletter_deliveries_total",
			Help: "Total number of newsletter delivery attempts",
		},
		[]string{"cadence", "outcome"},
	)
)

// RecordDBQuery observes one query's duration and outcome.
func RecordDBQuery(operation, table string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest observes one handled HTTP request.
func RecordAPIRequest(method, endpoint string, status int, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
