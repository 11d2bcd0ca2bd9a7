// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package api provides the HTTP surface of the service using the Chi
// router with production-hardened middleware from the Chi ecosystem.
//
// Endpoints:
//   - GET  /healthz                          liveness probe
//   - GET  /api/v1/health                    full health status
//   - GET  /api/v1/health/ready              readiness probe
//   - GET  /api/v1/keys/{userId}/{productId} join state introspection
//   - GET  /api/v1/stats                     pipeline handler statistics
//   - POST /api/v1/message                   manual event publishing
//   - GET  /metrics                          Prometheus metrics
//
// The manual publish endpoint exists for test data injection and
// operational backfills. It is rate limited separately from the read
// endpoints.
package api
