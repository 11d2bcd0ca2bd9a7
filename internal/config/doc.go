// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

/*
Package config provides centralized configuration management for AdEval.

Configuration is loaded with Koanf v2 from three layered sources, later
layers overriding earlier ones:
 1. Built-in defaults
 2. Optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

# Configuration Structure

  - NATSConfig: embedded JetStream server and Watermill transport settings
  - JoinConfig: qualification thresholds, table sharding, optional expiry
  - ServerConfig: HTTP server settings (host, port, timeout)
  - APIConfig: rate limiting and CORS
  - LoggingConfig: log level and output format

# Environment Variables

Processing (JoinConfig):
  - JOIN_VIEW_DURATION_THRESHOLD: minimum exclusive watch duration (default: 10)
  - JOIN_PRICE_CEILING: maximum exclusive line item price (default: 1000000)
  - JOIN_SHARD_COUNT: table shards and key-lock stripes (default: 64)
  - JOIN_AD_TABLE_TTL / JOIN_PURCHASE_TABLE_TTL: optional expiry (default: 0, unbounded)

Messaging (NATSConfig):
  - NATS_URL: server URL (default: nats://127.0.0.1:4222)
  - NATS_EMBEDDED: run an embedded NATS server (default: true)
  - NATS_SUBSCRIBERS: subscribers per consumer group (default: 4)
  - NATS_ROUTER_RETRY_COUNT: handler retry attempts (default: 3)
  - NATS_ROUTER_POISON_TOPIC: poison queue topic (default: adeval.poison)

HTTP Server (ServerConfig):
  - HTTP_HOST: bind address (default: 0.0.0.0)
  - HTTP_PORT: listen port (default: 3858)
  - HTTP_TIMEOUT: request timeout (default: 30s)

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)

Unknown environment variables are ignored rather than mapped blindly, so the
process environment cannot pollute the configuration.
*/
package config
