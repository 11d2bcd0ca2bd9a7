// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/adeval/adeval/internal/join"
	"github.com/adeval/adeval/internal/metrics"
)

// ViewHandler consumes view events and feeds them to the join engine.
//
// Error handling:
//   - Decode/validation errors return PermanentError (no retry, poison queue)
//   - Malformed numerics and unkeyable records are dropped inside the engine
//     (handler returns nil, message is acked)
//   - Emission failures return RetryableError (message redelivered)
type ViewHandler struct {
	engine     *join.Engine
	serializer *Serializer
	logger     watermill.LoggerAdapter

	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
}

// NewViewHandler creates a handler for the view-events topic.
func NewViewHandler(engine *join.Engine, logger watermill.LoggerAdapter) (*ViewHandler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &ViewHandler{
		engine:     engine,
		serializer: NewSerializer(),
		logger:     logger,
	}, nil
}

// Handle processes a single view event message.
func (h *ViewHandler) Handle(msg *message.Message) error {
	h.messagesReceived.Add(1)
	metrics.TransportConsumed.WithLabelValues(TopicViewEvents).Inc()
	metrics.RecordsReceived.WithLabelValues(metrics.StreamViews).Inc()

	view, err := h.serializer.DecodeViewEvent(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.TransportParseFailures.WithLabelValues(TopicViewEvents).Inc()
		h.logger.Error("Failed to parse view event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return NewPermanentError("view event parse error", err)
	}

	if err := h.engine.ProcessView(msg.Context(), view); err != nil {
		return NewRetryableError("process view", err)
	}

	h.messagesProcessed.Add(1)
	return nil
}

// Stats returns current handler statistics.
func (h *ViewHandler) Stats() HandlerStats {
	return HandlerStats{
		MessagesReceived:  h.messagesReceived.Load(),
		MessagesProcessed: h.messagesProcessed.Load(),
		ParseErrors:       h.parseErrors.Load(),
	}
}

// FanoutHandler expands purchase events into single-product line items and
// republishes them to the purchase-items topic. Expansion is purely
// structural: qualification happens later, when the item handler feeds each
// line item to the engine, so the qualifier stays the single gate in front
// of the tables.
type FanoutHandler struct {
	serializer *Serializer
	logger     watermill.LoggerAdapter

	messagesReceived atomic.Int64
	itemsExpanded    atomic.Int64
	parseErrors      atomic.Int64
}

// NewFanoutHandler creates a handler for the purchase-events topic.
func NewFanoutHandler(logger watermill.LoggerAdapter) (*FanoutHandler, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &FanoutHandler{
		serializer: NewSerializer(),
		logger:     logger,
	}, nil
}

// Handle expands one purchase event into its line item messages.
// The returned messages are published to the handler's output topic in
// source order. An empty items array produces no output and acks the input.
func (h *FanoutHandler) Handle(msg *message.Message) ([]*message.Message, error) {
	h.messagesReceived.Add(1)
	metrics.TransportConsumed.WithLabelValues(TopicPurchaseEvents).Inc()
	metrics.RecordsReceived.WithLabelValues(metrics.StreamPurchases).Inc()

	purchase, err := h.serializer.DecodePurchaseEvent(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.TransportParseFailures.WithLabelValues(TopicPurchaseEvents).Inc()
		h.logger.Error("Failed to parse purchase event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil, NewPermanentError("purchase event parse error", err)
	}

	items := join.Expand(purchase)
	out := make([]*message.Message, 0, len(items))
	for i := range items {
		payload, err := h.serializer.EncodeLineItem(&items[i])
		if err != nil {
			return nil, NewPermanentError("encode line item", err)
		}
		out = append(out, message.NewMessage(uuid.New().String(), payload))
	}

	h.itemsExpanded.Add(int64(len(out)))
	metrics.LineItemsExpanded.Add(float64(len(out)))
	return out, nil
}

// Stats returns current handler statistics.
func (h *FanoutHandler) Stats() HandlerStats {
	return HandlerStats{
		MessagesReceived:  h.messagesReceived.Load(),
		MessagesProcessed: h.itemsExpanded.Load(),
		ParseErrors:       h.parseErrors.Load(),
	}
}

// ItemHandler consumes expanded line items and feeds them to the join engine.
// Error semantics match ViewHandler.
type ItemHandler struct {
	engine     *join.Engine
	serializer *Serializer
	logger     watermill.LoggerAdapter

	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
}

// NewItemHandler creates a handler for the purchase-items topic.
func NewItemHandler(engine *join.Engine, logger watermill.LoggerAdapter) (*ItemHandler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &ItemHandler{
		engine:     engine,
		serializer: NewSerializer(),
		logger:     logger,
	}, nil
}

// Handle processes a single purchase line item message.
func (h *ItemHandler) Handle(msg *message.Message) error {
	h.messagesReceived.Add(1)
	metrics.TransportConsumed.WithLabelValues(TopicPurchaseItems).Inc()
	metrics.RecordsReceived.WithLabelValues(metrics.StreamItems).Inc()

	item, err := h.serializer.DecodePurchaseLineItem(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.TransportParseFailures.WithLabelValues(TopicPurchaseItems).Inc()
		h.logger.Error("Failed to parse line item", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return NewPermanentError("line item parse error", err)
	}

	if err := h.engine.ProcessItem(msg.Context(), item); err != nil {
		return NewRetryableError("process item", err)
	}

	h.messagesProcessed.Add(1)
	return nil
}

// Stats returns current handler statistics.
func (h *ItemHandler) Stats() HandlerStats {
	return HandlerStats{
		MessagesReceived:  h.messagesReceived.Load(),
		MessagesProcessed: h.messagesProcessed.Load(),
		ParseErrors:       h.parseErrors.Load(),
	}
}

// HandlerStats holds runtime statistics for a router handler.
type HandlerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	ParseErrors       int64
}
