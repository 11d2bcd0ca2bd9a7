// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"time"
)

// Topic names. view-events and purchase-events are the inbound streams,
// purchase-items is the intermediate fan-out topic, effect-events carries
// joined output. adeval.default accepts manual raw publishes and
// adeval.poison receives messages that failed permanently.
const (
	TopicViewEvents     = "view-events"
	TopicPurchaseEvents = "purchase-events"
	TopicPurchaseItems  = "purchase-items"
	TopicEffectEvents   = "effect-events"
	TopicDefault        = "adeval.default"
	TopicPoison         = "adeval.poison"
)

// Stream names. Streams are provisioned before the router starts.
const (
	StreamViews     = "VIEWS"
	StreamPurchases = "PURCHASES"
	StreamEffects   = "EFFECTS"
	StreamAdeval    = "ADEVAL"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,  // 1GB
		JetStreamMaxStore: 10 << 30, // 10GB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
	// StreamName binds the subscriber to an existing stream with
	// nats.BindStream() and disables AutoProvision. Streams are created by
	// the StreamInitializer, so every subscriber binds.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for a subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "adeval-processor",
		QueueGroup:       "processors",
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,    // Max redelivery attempts
		MaxAckPending:    1000, // Flow control
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages that fail after all retries.
	// Empty disables the poison queue.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     TopicPoison,
	}
}

// StreamConfig defines a JetStream stream's settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfigs returns the stream set this service provisions:
// inbound views, inbound purchases plus the fan-out topic, joined output,
// and the default/poison subjects.
func DefaultStreamConfigs() []StreamConfig {
	base := StreamConfig{
		MaxAge:          7 * 24 * time.Hour, // 7 days
		MaxBytes:        10 << 30,           // 10GB
		MaxMsgs:         -1,                 // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}

	views := base
	views.Name = StreamViews
	views.Subjects = []string{TopicViewEvents}

	purchases := base
	purchases.Name = StreamPurchases
	purchases.Subjects = []string{TopicPurchaseEvents, TopicPurchaseItems}

	effects := base
	effects.Name = StreamEffects
	effects.Subjects = []string{TopicEffectEvents}

	adeval := base
	adeval.Name = StreamAdeval
	adeval.Subjects = []string{"adeval.>"}

	return []StreamConfig{views, purchases, effects, adeval}
}

// EmitterConfig holds the effect publisher's retry policy.
type EmitterConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultEmitterConfig returns production defaults for the emitter.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}
