/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package slotgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/dialwave/internal/playlist"
)

// Client calls an external slot generation service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the generation service at baseURL.
func NewClient(baseURL string, logger zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "slotgen").Logger(),
	}, nil
}

type slotRow struct {
	Kind    string `json:"kind"`
	Content string `json:"content,omitempty"`
}

type slotsResponse struct {
	Slots []slotRow `json:"slots"`
}

// GenerateSlots asks the service for a slot sequence. Rows with an unknown
// kind make the whole response unusable.
func (c *Client) GenerateSlots(ctx context.Context, req Request) ([]playlist.Slot, error) {
	var resp slotsResponse
	if err := c.post(ctx, "/v1/slots", req, &resp); err != nil {
		return nil, err
	}

	slots := make([]playlist.Slot, 0, len(resp.Slots))
	for idx, row := range resp.Slots {
		kind := playlist.Kind(row.Kind)
		if !playlist.ValidKind(kind) {
			return nil, fmt.Errorf("slot %d has unknown kind %q", idx, row.Kind)
		}
		slots = append(slots, playlist.Slot{Kind: kind, Content: row.Content})
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("service returned no slots")
	}
	return slots, nil
}

type voiceRequest struct {
	Text        string `json:"text"`
	PersonaName string `json:"persona_name"`
}

// RenderVoice asks the service to synthesize a spoken clip for text.
func (c *Client) RenderVoice(ctx context.Context, text, personaName string) (VoiceClip, error) {
	var clip VoiceClip
	err := c.post(ctx, "/v1/voice", voiceRequest{Text: text, PersonaName: personaName}, &clip)
	if err != nil {
		return VoiceClip{}, err
	}
	if clip.AudioURL == "" {
		return VoiceClip{}, fmt.Errorf("service returned no audio URL")
	}
	return clip, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("Slot generation request")

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request %s failed (status %d): %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
