// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package main is the entry point for the adeval server.
//
// AdEval joins ad view events against purchase events in real time and
// emits one effectiveness record whenever a qualified view and a
// qualified purchase exist for the same user and product.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, file, env)
//  2. Logging: zerolog global logger
//  3. Event stream: embedded NATS JetStream (optional), streams,
//     publisher, join engine, and the Watermill router
//  4. HTTP API: Chi router with health, state, stats, and manual publish
//  5. Supervision: suture tree running the router, sweeper, and server
//
// Graceful shutdown on SIGINT and SIGTERM: the router drains in-flight
// messages, the HTTP server drains connections, then the transport and
// embedded server close.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/adeval/adeval/internal/api"
	"github.com/adeval/adeval/internal/config"
	"github.com/adeval/adeval/internal/eventstream"
	"github.com/adeval/adeval/internal/logging"
	"github.com/adeval/adeval/internal/supervisor"
	"github.com/adeval/adeval/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Int("port", cfg.Server.Port).
		Bool("embedded_nats", cfg.NATS.EmbeddedServer).
		Msg("Starting adeval")

	components, err := eventstream.NewComponents(cfg)
	if err != nil {
		return fmt.Errorf("initialize event stream: %w", err)
	}
	defer func() {
		if err := components.Stop(); err != nil {
			logging.Warn().Err(err).Msg("Event stream shutdown reported errors")
		}
	}()

	handler := api.NewHandler(components.Engine, components.Publisher, components)
	handler.SetReadinessCheck(components.Router.IsRunning)

	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.API.RateLimitReqs,
		RateLimitWindow:    cfg.API.RateLimitWindow,
		RateLimitDisabled:  cfg.API.RateLimitDisabled,
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree, err := supervisor.NewTree(
		slog.New(logging.NewSlogHandler()),
		supervisor.DefaultTreeConfig(),
	)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddMessagingService(services.NewEventStreamService(components))
	if cfg.Join.AdTableTTL > 0 || cfg.Join.PurchaseTableTTL > 0 {
		tree.AddMessagingService(services.NewSweeperService(components.Engine, cfg.Join.SweepInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Supervision tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
