// GuildPulse - Community Presence Analytics and Session Reconstruction
// Copyright 2026 GuildPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guildpulse/guildpulse

package newsletter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// embedColor is the accent color of newsletter embeds (a warm orange).
const embedColor = 14924912

// Discord caps embed descriptions at 4096 characters.
const maxDescriptionLen = 4096

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Color       int    `json:"color"`
}

// WebhookSender delivers rendered newsletters to a Discord webhook.
type WebhookSender struct {
	url    string
	client *http.Client
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the newsletter body as an embed. Discord answers 204 No
// Content on success; anything else is a delivery failure.
func (s *WebhookSender) Send(ctx context.Context, body string) error {
	if len(body) > maxDescriptionLen {
		body = body[:maxDescriptionLen]
	}
	payload := webhookPayload{
		Embeds: []webhookEmbed{{
			Description: body,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Color:       embedColor,
		}},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
