/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for frequently accessed data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default TTL values for different cache types
const (
	DefaultStationListTTL = 5 * time.Minute

	// The catalog pool doubles as a degraded-mode track source when the
	// upstream catalog is down, so it is kept around far longer than a
	// freshness-driven TTL would suggest.
	DefaultCatalogPoolTTL = 24 * time.Hour
)

// Key prefixes for Redis cache
const (
	KeyStationList = "dialwave:cache:stations"
	KeyStation     = "dialwave:cache:station:" // + station_id
	KeyCatalogPool = "dialwave:cache:catalog_pool"
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	StationListTTL time.Duration
	CatalogPoolTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		StationListTTL: DefaultStationListTTL,
		CatalogPoolTTL: DefaultCatalogPoolTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// Station caching methods

// CachedStation represents a cached station record for the tuner list.
type CachedStation struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	ThemeText    string  `json:"theme_text"`
	DJPersonaID  string  `json:"dj_persona_id,omitempty"`
	TrackCount   int     `json:"track_count"`
}

// GetStationList retrieves the cached list of stations.
func (c *Cache) GetStationList(ctx context.Context) ([]CachedStation, bool) {
	var stations []CachedStation
	found, err := c.get(ctx, KeyStationList, &stations)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Int("count", len(stations)).Msg("station list cache hit")
	return stations, true
}

// SetStationList caches the list of stations.
func (c *Cache) SetStationList(ctx context.Context, stations []CachedStation) error {
	c.logger.Debug().Int("count", len(stations)).Msg("caching station list")
	return c.set(ctx, KeyStationList, stations, c.config.StationListTTL)
}

// InvalidateStationList removes the station list from cache.
func (c *Cache) InvalidateStationList(ctx context.Context) error {
	c.logger.Debug().Msg("invalidating station list cache")
	return c.delete(ctx, KeyStationList)
}

// InvalidateStation removes a single station from cache.
func (c *Cache) InvalidateStation(ctx context.Context, stationID string) error {
	c.logger.Debug().Str("station_id", stationID).Msg("invalidating station cache")
	return c.delete(ctx, KeyStation+stationID)
}

// Catalog pool caching methods

// CachedTrack is one catalog track held in the sample pool.
type CachedTrack struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayURL         string  `json:"play_url"`
	Genre           string  `json:"genre,omitempty"`
}

// GetCatalogPool retrieves the cached catalog sample pool.
func (c *Cache) GetCatalogPool(ctx context.Context) ([]CachedTrack, bool) {
	var tracks []CachedTrack
	found, err := c.get(ctx, KeyCatalogPool, &tracks)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Int("count", len(tracks)).Msg("catalog pool cache hit")
	return tracks, true
}

// SetCatalogPool caches the catalog sample pool.
func (c *Cache) SetCatalogPool(ctx context.Context, tracks []CachedTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	c.logger.Debug().Int("count", len(tracks)).Msg("caching catalog pool")
	return c.set(ctx, KeyCatalogPool, tracks, c.config.CatalogPoolTTL)
}
