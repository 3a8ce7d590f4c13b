/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalog samples playable tracks from an external catalog service.
// Successful samples feed a Redis-backed pool so that a catalog outage
// degrades to replaying known tracks instead of empty playlists.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/dialwave/internal/cache"
	"github.com/friendsincode/dialwave/internal/playlist"
)

// Pool tracks retained across samples. Bounded so the Redis value stays small.
const maxPoolSize = 200

// PoolCache is the slice of the cache layer the catalog client needs.
type PoolCache interface {
	GetCatalogPool(ctx context.Context) ([]cache.CachedTrack, bool)
	SetCatalogPool(ctx context.Context, tracks []cache.CachedTrack) error
}

// Client fetches track samples over HTTP. It satisfies playlist.CatalogSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pool       PoolCache
	logger     zerolog.Logger
}

// NewClient creates a catalog client. pool may be nil, in which case no
// degraded mode is available.
func NewClient(baseURL string, pool PoolCache, logger zerolog.Logger) (*Client, error) {
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
			Timeout: 15 * time.Second,
		},
		pool:   pool,
		logger: logger.With().Str("component", "catalog").Logger(),
	}, nil
}

type trackRow struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayURL         string  `json:"play_url"`
	Genre           string  `json:"genre,omitempty"`
}

type sampleResponse struct {
	Tracks []trackRow `json:"tracks"`
}

// Sample fetches up to count tracks. On upstream failure it falls back to the
// cached pool; the error is returned only when the pool is empty too.
func (c *Client) Sample(ctx context.Context, count int) ([]playlist.Track, error) {
	if count <= 0 {
		return nil, nil
	}

	tracks, err := c.fetch(ctx, count)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if pooled := c.fromPool(ctx, count); len(pooled) > 0 {
			c.logger.Warn().Err(err).Int("pooled", len(pooled)).Msg("catalog unavailable, serving cached pool")
			return pooled, nil
		}
		return nil, err
	}

	c.updatePool(ctx, tracks)
	return tracks, nil
}

func (c *Client) fetch(ctx context.Context, count int) ([]playlist.Track, error) {
	endpoint := c.baseURL + "/v1/tracks/sample?count=" + strconv.Itoa(count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sample request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sample failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload sampleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}

	tracks := make([]playlist.Track, 0, len(payload.Tracks))
	for _, row := range payload.Tracks {
		if row.Title == "" || row.PlayURL == "" {
			continue
		}
		tracks = append(tracks, playlist.Track{
			Title:           row.Title,
			Artist:          row.Artist,
			DurationSeconds: row.DurationSeconds,
			PlayURL:         row.PlayURL,
			Genre:           row.Genre,
		})
	}
	return tracks, nil
}

// updatePool merges freshly sampled tracks into the cached pool, keyed by
// play URL.
func (c *Client) updatePool(ctx context.Context, tracks []playlist.Track) {
	if c.pool == nil || len(tracks) == 0 {
		return
	}

	existing, _ := c.pool.GetCatalogPool(ctx)
	seen := make(map[string]bool, len(existing))
	merged := make([]cache.CachedTrack, 0, len(existing)+len(tracks))

	for _, track := range tracks {
		if seen[track.PlayURL] {
			continue
		}
		seen[track.PlayURL] = true
		merged = append(merged, cache.CachedTrack{
			Title:           track.Title,
			Artist:          track.Artist,
			DurationSeconds: track.DurationSeconds,
			PlayURL:         track.PlayURL,
			Genre:           track.Genre,
		})
	}
	for _, track := range existing {
		if seen[track.PlayURL] || len(merged) >= maxPoolSize {
			continue
		}
		seen[track.PlayURL] = true
		merged = append(merged, track)
	}

	if err := c.pool.SetCatalogPool(ctx, merged); err != nil {
		c.logger.Debug().Err(err).Msg("failed to update catalog pool")
	}
}

func (c *Client) fromPool(ctx context.Context, count int) []playlist.Track {
	if c.pool == nil {
		return nil
	}
	pooled, found := c.pool.GetCatalogPool(ctx)
	if !found || len(pooled) == 0 {
		return nil
	}

	perm := rand.Perm(len(pooled))
	if count > len(pooled) {
		count = len(pooled)
	}
	tracks := make([]playlist.Track, 0, count)
	for _, idx := range perm[:count] {
		row := pooled[idx]
		tracks = append(tracks, playlist.Track{
			Title:           row.Title,
			Artist:          row.Artist,
			DurationSeconds: row.DurationSeconds,
			PlayURL:         row.PlayURL,
			Genre:           row.Genre,
		})
	}
	return tracks
}
