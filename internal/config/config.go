// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variables (highest priority).
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - NATS: embedded JetStream server and Watermill transport settings
//     - Server: HTTP API configuration (port, host, timeouts)
//
//  2. Processing:
//     - Join: qualification thresholds, sharding, optional table expiry
//
//  3. Observability:
//     - Logging: log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	NATS    NATSConfig    `koanf:"nats"`
	Join    JoinConfig    `koanf:"join"`
	Server  ServerConfig  `koanf:"server"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// NATSConfig holds the embedded JetStream server and transport settings.
//
// Environment Variables:
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded NATS server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory
//   - NATS_SUBSCRIBERS: Subscriber count per consumer group
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	SubscribersCount int    `koanf:"subscribers_count"`
	DurableName      string `koanf:"durable_name"`
	QueueGroup       string `koanf:"queue_group"`

	// Router settings (Watermill Router middleware)
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`

	// Emission retry policy for the effect publisher
	EmitMaxRetries      int           `koanf:"emit_max_retries"`
	EmitInitialInterval time.Duration `koanf:"emit_initial_interval"`
}

// JoinConfig holds the stream-join processing settings.
//
// Environment Variables:
//   - JOIN_VIEW_DURATION_THRESHOLD: minimum exclusive watch duration (default: 10)
//   - JOIN_PRICE_CEILING: maximum exclusive line item price (default: 1000000)
//   - JOIN_SHARD_COUNT: table shard and key-lock stripe count (default: 64)
//   - JOIN_AD_TABLE_TTL / JOIN_PURCHASE_TABLE_TTL: optional expiry, 0 = unbounded
type JoinConfig struct {
	ViewDurationThreshold int           `koanf:"view_duration_threshold"`
	PriceCeiling          int           `koanf:"price_ceiling"`
	ShardCount            int           `koanf:"shard_count"`
	AdTableTTL            time.Duration `koanf:"ad_table_ttl"`
	PurchaseTableTTL      time.Duration `koanf:"purchase_table_ttl"`
	SweepInterval         time.Duration `koanf:"sweep_interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig holds API surface settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateJoin(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateNATS() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL must not be empty")
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_COUNT must not be negative")
	}
	if c.NATS.RouterPoisonQueueEnabled && c.NATS.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("NATS_ROUTER_POISON_TOPIC is required when the poison queue is enabled")
	}
	if c.NATS.EmitMaxRetries < 0 {
		return fmt.Errorf("NATS_EMIT_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) validateJoin() error {
	if c.Join.ViewDurationThreshold < 0 {
		return fmt.Errorf("JOIN_VIEW_DURATION_THRESHOLD must not be negative")
	}
	if c.Join.PriceCeiling < 1 {
		return fmt.Errorf("JOIN_PRICE_CEILING must be positive")
	}
	if c.Join.ShardCount < 1 {
		return fmt.Errorf("JOIN_SHARD_COUNT must be at least 1")
	}
	if c.Join.AdTableTTL < 0 || c.Join.PurchaseTableTTL < 0 {
		return fmt.Errorf("table TTLs must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("HTTP_TIMEOUT must be at least 1s")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}
