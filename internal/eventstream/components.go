// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/adeval/adeval/internal/config"
	"github.com/adeval/adeval/internal/join"
	"github.com/adeval/adeval/internal/logging"
)

// Components owns the full event processing stack: the optional embedded
// NATS server, stream provisioning, the publisher, the join engine, and the
// router with its three pipeline handlers.
type Components struct {
	Engine    *Engine
	Router    *Router
	Publisher *Publisher

	server  *EmbeddedServer
	conn    *natsgo.Conn
	viewSub *Subscriber
	fanSub  *Subscriber
	itemSub *Subscriber

	viewHandler   *ViewHandler
	fanoutHandler *FanoutHandler
	itemHandler   *ItemHandler
}

// Engine aliases the join engine so API consumers depend on this package
// only for wiring, not for join semantics.
type Engine = join.Engine

// NewComponents builds the event processing stack from application config.
// When cfg.NATS.EmbeddedServer is set, an embedded JetStream server is
// started and its client URL overrides cfg.NATS.URL.
func NewComponents(cfg *config.Config) (*Components, error) {
	c := &Components{}
	logger := NewZerologAdapter()

	url := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := DefaultServerConfig()
		serverCfg.StoreDir = cfg.NATS.StoreDir
		serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore

		srv, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.server = srv
		url = srv.ClientURL()
	}

	// Provisioning connection: streams must exist before publishers and
	// subscribers bind to them.
	conn, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	provisionCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := EnsureStreams(provisionCtx, js, DefaultStreamConfigs()); err != nil {
		c.closePartial()
		return nil, fmt.Errorf("provision streams: %w", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(url), logger)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	pub.SetCircuitBreaker(NewPublishBreaker("effect-publisher"))
	c.Publisher = pub

	emitterCfg := DefaultEmitterConfig()
	if cfg.NATS.EmitMaxRetries > 0 {
		emitterCfg.MaxRetries = uint64(cfg.NATS.EmitMaxRetries)
	}
	if cfg.NATS.EmitInitialInterval > 0 {
		emitterCfg.InitialInterval = cfg.NATS.EmitInitialInterval
	}
	emitter, err := NewEffectEmitter(pub, emitterCfg)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("create emitter: %w", err)
	}

	engine, err := join.NewEngine(join.EngineConfig{
		Qualifier: join.QualifierConfig{
			ViewDurationThreshold: cfg.Join.ViewDurationThreshold,
			PriceCeiling:          cfg.Join.PriceCeiling,
		},
		ShardCount:       cfg.Join.ShardCount,
		AdTableTTL:       cfg.Join.AdTableTTL,
		PurchaseTableTTL: cfg.Join.PurchaseTableTTL,
	}, emitter, nil)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("create join engine: %w", err)
	}
	c.Engine = engine

	if err := c.buildRouter(cfg, url, logger); err != nil {
		c.closePartial()
		return nil, err
	}

	return c, nil
}

// buildRouter creates the subscribers, router, and pipeline handlers.
func (c *Components) buildRouter(cfg *config.Config, url string, logger *ZerologAdapter) error {
	newSub := func(durable, stream string) (*Subscriber, error) {
		subCfg := DefaultSubscriberConfig(url)
		subCfg.DurableName = durable
		subCfg.QueueGroup = cfg.NATS.QueueGroup
		subCfg.SubscribersCount = cfg.NATS.SubscribersCount
		subCfg.StreamName = stream
		return NewSubscriber(&subCfg, logger)
	}

	viewSub, err := newSub(cfg.NATS.DurableName+"-views", StreamViews)
	if err != nil {
		return fmt.Errorf("create view subscriber: %w", err)
	}
	c.viewSub = viewSub

	fanSub, err := newSub(cfg.NATS.DurableName+"-fanout", StreamPurchases)
	if err != nil {
		return fmt.Errorf("create fanout subscriber: %w", err)
	}
	c.fanSub = fanSub

	itemSub, err := newSub(cfg.NATS.DurableName+"-items", StreamPurchases)
	if err != nil {
		return fmt.Errorf("create item subscriber: %w", err)
	}
	c.itemSub = itemSub

	routerCfg := DefaultRouterConfig()
	routerCfg.RetryMaxRetries = cfg.NATS.RouterRetryCount
	routerCfg.RetryInitialInterval = cfg.NATS.RouterRetryInitialInterval
	routerCfg.CloseTimeout = cfg.NATS.RouterCloseTimeout
	if !cfg.NATS.RouterPoisonQueueEnabled {
		routerCfg.PoisonQueueTopic = ""
	} else if cfg.NATS.RouterPoisonQueueTopic != "" {
		routerCfg.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic
	}

	router, err := NewRouter(&routerCfg, c.Publisher.WatermillPublisher(), logger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	c.Router = router

	viewHandler, err := NewViewHandler(c.Engine, logger)
	if err != nil {
		return fmt.Errorf("create view handler: %w", err)
	}
	c.viewHandler = viewHandler
	router.AddConsumerHandler(
		"view-processor",
		TopicViewEvents,
		viewSub.WatermillSubscriber(),
		viewHandler.Handle,
	)

	fanoutHandler, err := NewFanoutHandler(logger)
	if err != nil {
		return fmt.Errorf("create fanout handler: %w", err)
	}
	c.fanoutHandler = fanoutHandler
	router.AddHandler(
		"purchase-fanout",
		TopicPurchaseEvents,
		fanSub.WatermillSubscriber(),
		TopicPurchaseItems,
		c.Publisher.WatermillPublisher(),
		fanoutHandler.Handle,
	)

	itemHandler, err := NewItemHandler(c.Engine, logger)
	if err != nil {
		return fmt.Errorf("create item handler: %w", err)
	}
	c.itemHandler = itemHandler
	router.AddConsumerHandler(
		"item-processor",
		TopicPurchaseItems,
		itemSub.WatermillSubscriber(),
		itemHandler.Handle,
	)

	return nil
}

// Run starts the router and blocks until the context is canceled or the
// router stops. Used as a supervised service body.
func (c *Components) Run(ctx context.Context) error {
	logging.Info().
		Int("handlers", c.Router.HandlerCount()).
		Msg("event processing started")
	return c.Router.Run(ctx)
}

// Stop shuts the stack down in dependency order: router first so in-flight
// messages drain, then transport, then the embedded server.
func (c *Components) Stop() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.Router != nil {
		record(c.Router.Close())
	}
	for _, sub := range []*Subscriber{c.viewSub, c.fanSub, c.itemSub} {
		if sub != nil {
			record(sub.Close())
		}
	}
	if c.Publisher != nil {
		record(c.Publisher.Close())
	}
	c.closePartial()

	logging.Info().Msg("event processing stopped")
	return firstErr
}

// closePartial releases the connection and embedded server, tolerating a
// half-built stack during construction failures.
func (c *Components) closePartial() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.server.Shutdown(ctx)
		c.server = nil
	}
}

// Stats returns combined handler statistics for ops introspection.
func (c *Components) Stats() ComponentsStats {
	stats := ComponentsStats{}
	if c.viewHandler != nil {
		stats.Views = c.viewHandler.Stats()
	}
	if c.fanoutHandler != nil {
		stats.Fanout = c.fanoutHandler.Stats()
	}
	if c.itemHandler != nil {
		stats.Items = c.itemHandler.Stats()
	}
	return stats
}

// ComponentsStats holds combined handler statistics.
type ComponentsStats struct {
	Views  HandlerStats
	Fanout HandlerStats
	Items  HandlerStats
}
