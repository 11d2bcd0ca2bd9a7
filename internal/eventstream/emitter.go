// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/adeval/adeval/internal/join"
	"github.com/adeval/adeval/internal/metrics"
	"github.com/adeval/adeval/internal/models"
)

// MessagePublisher is the publish surface the emitter needs. Satisfied by
// *Publisher; tests substitute a recording fake.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
}

// EffectEmitter publishes joined effect records to the effect-events topic.
// It implements join.Emitter.
//
// Transient publish failures are retried with bounded exponential backoff.
// When retries are exhausted the error is surfaced to the engine, which
// propagates it to the router handler so the at-least-once substrate
// redelivers the triggering message. Nothing is silently discarded.
type EffectEmitter struct {
	publisher MessagePublisher
	topic     string
	config    EmitterConfig
}

var _ join.Emitter = (*EffectEmitter)(nil)

// NewEffectEmitter creates an emitter publishing to the effect-events topic.
func NewEffectEmitter(publisher MessagePublisher, cfg EmitterConfig) (*EffectEmitter, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if cfg.MaxRetries == 0 {
		cfg = DefaultEmitterConfig()
	}
	return &EffectEmitter{
		publisher: publisher,
		topic:     TopicEffectEvents,
		config:    cfg,
	}, nil
}

// Emit publishes one effect record, retrying transient failures.
func (e *EffectEmitter) Emit(ctx context.Context, rec *models.EffectRecord) error {
	payload, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal effect record: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("userId", rec.UserID)
	msg.Metadata.Set("adId", rec.AdID)
	msg.Metadata.Set("orderId", rec.OrderID)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialInterval
	bo.MaxInterval = e.config.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.config.MaxRetries), ctx)

	operation := func() error {
		return e.publisher.Publish(ctx, e.topic, msg)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		metrics.EmitFailures.Inc()
		return fmt.Errorf("%w: publish effect to %s: %v", join.ErrDownstreamUnavailable, e.topic, err)
	}
	return nil
}
