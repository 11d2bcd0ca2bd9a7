// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"testing"
)

func TestDefaultStreamConfigs(t *testing.T) {
	t.Parallel()

	configs := DefaultStreamConfigs()

	subjects := map[string][]string{}
	for _, cfg := range configs {
		if cfg.Name == "" {
			t.Error("stream config with empty name")
		}
		if len(cfg.Subjects) == 0 {
			t.Errorf("stream %s has no subjects", cfg.Name)
		}
		subjects[cfg.Name] = cfg.Subjects
	}

	tests := []struct {
		stream  string
		subject string
	}{
		{StreamViews, TopicViewEvents},
		{StreamPurchases, TopicPurchaseEvents},
		{StreamPurchases, TopicPurchaseItems},
		{StreamEffects, TopicEffectEvents},
	}
	for _, tt := range tests {
		found := false
		for _, s := range subjects[tt.stream] {
			if s == tt.subject {
				found = true
			}
		}
		if !found {
			t.Errorf("stream %s does not carry subject %s", tt.stream, tt.subject)
		}
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRouterConfig()
	if cfg.RetryMaxRetries <= 0 {
		t.Error("retries disabled by default")
	}
	if cfg.RetryInitialInterval <= 0 {
		t.Error("retry interval not set")
	}
	if cfg.PoisonQueueTopic != TopicPoison {
		t.Errorf("poison topic = %q, want %q", cfg.PoisonQueueTopic, TopicPoison)
	}
}

func TestDefaultSubscriberConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultSubscriberConfig("nats://127.0.0.1:4222")
	if cfg.DurableName == "" {
		t.Error("durable name must be set for at-least-once consumption")
	}
	if cfg.MaxDeliver <= 1 {
		t.Error("MaxDeliver must allow redelivery")
	}
	if cfg.SubscribersCount <= 0 {
		t.Error("SubscribersCount must be positive")
	}
}
