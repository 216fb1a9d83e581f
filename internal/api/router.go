// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guildpulse/guildpulse/internal/config"
	"github.com/guildpulse/guildpulse/internal/metrics"
)

// NewRouter assembles the Chi router with the production middleware stack.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.WriteTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
	r.Use(prometheusMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Get("/timeline/voice", handler.TimelineVoice)
		r.Get("/timeline/games", handler.TimelineGames)
		r.Get("/timeline/channels", handler.TimelineChannels)
		r.Get("/sessions/longest", handler.LongestSessions)
		r.Get("/stats", handler.Stats)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// prometheusMiddleware records request counts and latencies using the chi
// route pattern so parameterized paths do not explode label cardinality.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(r.Method, endpoint, ww.Status(), start)
	})
}
