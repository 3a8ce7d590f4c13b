/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Event backend selection.
type EventBackend string

const (
	EventsMemory EventBackend = "memory"
	EventsRedis  EventBackend = "redis"
	EventsNATS   EventBackend = "nats"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	BaseURL     string // Public base URL (e.g., http://192.168.195.6:8080)
	DBBackend   DatabaseBackend
	DBDSN       string
	MetricsBind string

	// Upstream services
	SlotServiceURL string // Empty selects the built-in deterministic generator
	CatalogURL     string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Cache / events configuration
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventBackend  EventBackend
	NATSURL       string
	InstanceID    string

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"DIALWAVE_ENV", "RADIOSIM_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"DIALWAVE_HTTP_BIND", "RADIOSIM_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"DIALWAVE_HTTP_PORT", "RADIOSIM_HTTP_PORT"}, 8080),
		BaseURL:     getEnvAny([]string{"DIALWAVE_BASE_URL", "RADIOSIM_BASE_URL"}, ""),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"DIALWAVE_DB_BACKEND", "RADIOSIM_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"DIALWAVE_DB_DSN", "RADIOSIM_DB_DSN"}, ""),
		MetricsBind: getEnvAny([]string{"DIALWAVE_METRICS_BIND", "RADIOSIM_METRICS_BIND"}, "127.0.0.1:9000"),

		// Upstream services
		SlotServiceURL: getEnvAny([]string{"DIALWAVE_SLOT_SERVICE_URL", "RADIOSIM_SLOT_SERVICE_URL"}, ""),
		CatalogURL:     getEnvAny([]string{"DIALWAVE_CATALOG_URL", "RADIOSIM_CATALOG_URL"}, ""),

		// Tracing configuration
		TracingEnabled:    getEnvBoolAny([]string{"DIALWAVE_TRACING_ENABLED", "RADIOSIM_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"DIALWAVE_OTLP_ENDPOINT", "RADIOSIM_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"DIALWAVE_TRACING_SAMPLE_RATE", "RADIOSIM_TRACING_SAMPLE_RATE"}, 1.0),

		// Cache / events configuration
		CacheEnabled:  getEnvBoolAny([]string{"DIALWAVE_CACHE_ENABLED", "RADIOSIM_CACHE_ENABLED"}, true),
		RedisAddr:     getEnvAny([]string{"DIALWAVE_REDIS_ADDR", "RADIOSIM_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"DIALWAVE_REDIS_PASSWORD", "RADIOSIM_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"DIALWAVE_REDIS_DB", "RADIOSIM_REDIS_DB"}, 0),
		EventBackend:  EventBackend(getEnvAny([]string{"DIALWAVE_EVENT_BACKEND", "RADIOSIM_EVENT_BACKEND"}, string(EventsMemory))),
		NATSURL:       getEnvAny([]string{"DIALWAVE_NATS_URL", "RADIOSIM_NATS_URL"}, "nats://localhost:4222"),
		InstanceID:    getEnvAny([]string{"DIALWAVE_INSTANCE_ID", "RADIOSIM_INSTANCE_ID"}, ""),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		if cfg.DBBackend != DatabaseSQLite {
			return nil, fmt.Errorf("DIALWAVE_DB_DSN must be provided for backend %q", cfg.DBBackend)
		}
		cfg.DBDSN = "dialwave.db"
	}

	if cfg.EventBackend != EventsMemory && cfg.EventBackend != EventsRedis && cfg.EventBackend != EventsNATS {
		return nil, fmt.Errorf("unsupported event backend %q", cfg.EventBackend)
	}

	if strings.EqualFold(cfg.Environment, "production") {
		if cfg.CatalogURL == "" {
			return nil, fmt.Errorf("DIALWAVE_CATALOG_URL must be provided in production")
		}
		if cfg.SlotServiceURL == "" {
			return nil, fmt.Errorf("DIALWAVE_SLOT_SERVICE_URL must be provided in production")
		}
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENVIRONMENT":     "use DIALWAVE_ENV (or RADIOSIM_ENV)",
		"DB_DSN":          "use DIALWAVE_DB_DSN (or RADIOSIM_DB_DSN)",
		"CATALOG_URL":     "use DIALWAVE_CATALOG_URL (or RADIOSIM_CATALOG_URL)",
		"TRACING_ENABLED": "use DIALWAVE_TRACING_ENABLED (or RADIOSIM_TRACING_ENABLED)",
		"OTLP_ENDPOINT":   "use DIALWAVE_OTLP_ENDPOINT (or RADIOSIM_OTLP_ENDPOINT)",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
