// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/adeval/adeval/internal/join"
	"github.com/adeval/adeval/internal/models"
)

// recordingEmitter captures emitted effect records for assertions.
type recordingEmitter struct {
	mu      sync.Mutex
	records []*models.EffectRecord
	err     error
}

func (e *recordingEmitter) Emit(_ context.Context, rec *models.EffectRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.records = append(e.records, rec)
	return nil
}

func (e *recordingEmitter) emitted() []*models.EffectRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.EffectRecord, len(e.records))
	copy(out, e.records)
	return out
}

func newTestEngine(t *testing.T, emitter join.Emitter) *join.Engine {
	t.Helper()
	engine, err := join.NewEngine(join.DefaultEngineConfig(), emitter, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func newMsg(payload string) *message.Message {
	return message.NewMessage(uuid.New().String(), []byte(payload))
}

func TestViewHandler_ValidView(t *testing.T) {
	t.Parallel()

	emitter := &recordingEmitter{}
	h, err := NewViewHandler(newTestEngine(t, emitter), nil)
	if err != nil {
		t.Fatalf("NewViewHandler: %v", err)
	}

	msg := newMsg(`{"userId":"uid-00001","productId":"pg-00001","adId":"ad-00001","adType":"banner","watchDuration":"30","watchedAt":"20230201070000"}`)
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	stats := h.Stats()
	if stats.MessagesReceived != 1 || stats.MessagesProcessed != 1 || stats.ParseErrors != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(emitter.emitted()) != 0 {
		t.Error("view alone should not emit an effect")
	}
}

func TestViewHandler_ParseErrorIsPermanent(t *testing.T) {
	t.Parallel()

	h, err := NewViewHandler(newTestEngine(t, &recordingEmitter{}), nil)
	if err != nil {
		t.Fatalf("NewViewHandler: %v", err)
	}

	handleErr := h.Handle(newMsg(`not json at all`))
	if handleErr == nil {
		t.Fatal("expected error for unparseable payload")
	}
	if !IsPermanentError(handleErr) {
		t.Errorf("parse error should be permanent, got %v", handleErr)
	}
	if h.Stats().ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", h.Stats().ParseErrors)
	}
}

func TestViewHandler_MalformedDurationAcked(t *testing.T) {
	t.Parallel()

	emitter := &recordingEmitter{}
	h, err := NewViewHandler(newTestEngine(t, emitter), nil)
	if err != nil {
		t.Fatalf("NewViewHandler: %v", err)
	}

	// Well-formed JSON with a non-numeric duration is dropped by the
	// engine, not retried. Handler must return nil so the message acks.
	msg := newMsg(`{"userId":"uid-00001","productId":"pg-00001","adId":"ad-00001","watchDuration":"forever","watchedAt":"20230201070000"}`)
	if err := h.Handle(msg); err != nil {
		t.Fatalf("malformed duration should ack, got %v", err)
	}
	if len(emitter.emitted()) != 0 {
		t.Error("dropped record must not emit")
	}
}

func TestItemHandler_JoinEmitsEffect(t *testing.T) {
	t.Parallel()

	emitter := &recordingEmitter{}
	engine := newTestEngine(t, emitter)

	vh, err := NewViewHandler(engine, nil)
	if err != nil {
		t.Fatalf("NewViewHandler: %v", err)
	}
	ih, err := NewItemHandler(engine, nil)
	if err != nil {
		t.Fatalf("NewItemHandler: %v", err)
	}

	view := newMsg(`{"userId":"uid-00001","productId":"pg-00001","adId":"ad-00001","watchDuration":"30","watchedAt":"20230201070000"}`)
	if err := vh.Handle(view); err != nil {
		t.Fatalf("view handle: %v", err)
	}

	item := newMsg(`{"userId":"uid-00001","productId":"pg-00001","orderId":"od-00001","purchasedAt":"20230201080000","price":"12000"}`)
	if err := ih.Handle(item); err != nil {
		t.Fatalf("item handle: %v", err)
	}

	emitted := emitter.emitted()
	if len(emitted) != 1 {
		t.Fatalf("emitted %d effects, want 1", len(emitted))
	}
	rec := emitted[0]
	if rec.UserID != "uid-00001" || rec.AdID != "ad-00001" || rec.OrderID != "od-00001" {
		t.Errorf("effect = %+v", rec)
	}
	if rec.ProductInfo.ProductID != "pg-00001" || rec.ProductInfo.Price != "12000" {
		t.Errorf("productInfo = %+v", rec.ProductInfo)
	}
}

func TestItemHandler_EmitFailureIsRetryable(t *testing.T) {
	t.Parallel()

	emitter := &recordingEmitter{err: errors.New("broker down")}
	engine := newTestEngine(t, emitter)

	vh, err := NewViewHandler(engine, nil)
	if err != nil {
		t.Fatalf("NewViewHandler: %v", err)
	}
	ih, err := NewItemHandler(engine, nil)
	if err != nil {
		t.Fatalf("NewItemHandler: %v", err)
	}

	view := newMsg(`{"userId":"uid-00001","productId":"pg-00001","adId":"ad-00001","watchDuration":"30","watchedAt":"20230201070000"}`)
	if err := vh.Handle(view); err != nil {
		t.Fatalf("view handle: %v", err)
	}

	item := newMsg(`{"userId":"uid-00001","productId":"pg-00001","orderId":"od-00001","purchasedAt":"20230201080000","price":"12000"}`)
	handleErr := ih.Handle(item)
	if handleErr == nil {
		t.Fatal("expected error when emission fails")
	}
	if !IsRetryableError(handleErr) {
		t.Errorf("emission failure should be retryable, got %v", handleErr)
	}
}

func TestFanoutHandler_ExpandsInOrder(t *testing.T) {
	t.Parallel()

	h, err := NewFanoutHandler(nil)
	if err != nil {
		t.Fatalf("NewFanoutHandler: %v", err)
	}

	msg := newMsg(`{
		"userId": "uid-00001",
		"orderId": "od-00001",
		"purchasedAt": "20230201080000",
		"items": [
			{"productId": "pg-00001", "price": "12000"},
			{"productId": "pg-00002", "price": "990"},
			{"productId": "pg-00003", "price": "2000000"}
		]
	}`)

	out, err := h.Handle(msg)
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expanded %d messages, want 3", len(out))
	}

	s := NewSerializer()
	wantProducts := []string{"pg-00001", "pg-00002", "pg-00003"}
	for i, m := range out {
		li, err := s.DecodePurchaseLineItem(m.Payload)
		if err != nil {
			t.Fatalf("decode output %d: %v", i, err)
		}
		if li.ProductID != wantProducts[i] {
			t.Errorf("output %d productId = %q, want %q", i, li.ProductID, wantProducts[i])
		}
		if li.UserID != "uid-00001" || li.OrderID != "od-00001" || li.PurchasedAt != "20230201080000" {
			t.Errorf("output %d did not inherit order context: %+v", i, li)
		}
	}
}

func TestFanoutHandler_EmptyItems(t *testing.T) {
	t.Parallel()

	h, err := NewFanoutHandler(nil)
	if err != nil {
		t.Fatalf("NewFanoutHandler: %v", err)
	}

	out, err := h.Handle(newMsg(`{"userId":"uid-00001","orderId":"od-00001","purchasedAt":"20230201080000","items":[]}`))
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("empty purchase expanded to %d messages", len(out))
	}
}

func TestFanoutHandler_ParseErrorIsPermanent(t *testing.T) {
	t.Parallel()

	h, err := NewFanoutHandler(nil)
	if err != nil {
		t.Fatalf("NewFanoutHandler: %v", err)
	}

	_, handleErr := h.Handle(newMsg(`{broken`))
	if handleErr == nil {
		t.Fatal("expected error for unparseable payload")
	}
	if !IsPermanentError(handleErr) {
		t.Errorf("parse error should be permanent, got %v", handleErr)
	}
}

func TestNewHandlers_RequireEngine(t *testing.T) {
	t.Parallel()

	if _, err := NewViewHandler(nil, nil); err == nil {
		t.Error("NewViewHandler accepted nil engine")
	}
	if _, err := NewItemHandler(nil, nil); err == nil {
		t.Error("NewItemHandler accepted nil engine")
	}
}
