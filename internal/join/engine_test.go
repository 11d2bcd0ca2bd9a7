// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/adeval/adeval/internal/models"
)

// mockEmitter records emitted effect records and can simulate downstream
// failure.
type mockEmitter struct {
	mu      sync.Mutex
	records []models.EffectRecord
	err     error
}

func (m *mockEmitter) Emit(_ context.Context, rec *models.EffectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockEmitter) emitted() []models.EffectRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EffectRecord, len(m.records))
	copy(out, m.records)
	return out
}

// mockSink records dropped-record notifications.
type mockSink struct {
	mu    sync.Mutex
	drops []error
}

func (m *mockSink) RecordDropped(_ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops = append(m.drops, err)
}

func (m *mockSink) dropCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drops)
}

func newTestEngine(t *testing.T) (*Engine, *mockEmitter, *mockSink) {
	t.Helper()
	emitter := &mockEmitter{}
	sink := &mockSink{}
	eng, err := NewEngine(DefaultEngineConfig(), emitter, sink)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return eng, emitter, sink
}

func testView() *models.ViewEvent {
	return &models.ViewEvent{
		UserID:        "uid-00001",
		ProductID:     "pg-00001",
		AdID:          "ad-00001",
		AdType:        "banner",
		WatchDuration: "30",
		WatchedAt:     "20230201070000",
	}
}

func testItem() *models.PurchaseLineItem {
	return &models.PurchaseLineItem{
		UserID:      "uid-00001",
		ProductID:   "pg-00001",
		OrderID:     "od-00001",
		PurchasedAt: "20230201070000",
		Price:       "12000",
	}
}

func TestNewEngine_NilEmitter(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(DefaultEngineConfig(), nil, nil); err == nil {
		t.Error("NewEngine should error with nil emitter")
	}
}

func TestEngine_ViewThenPurchaseEmitsEffect(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}
	if got := emitter.emitted(); len(got) != 0 {
		t.Fatalf("emitted %d records before purchase arrived, want 0", len(got))
	}

	if err := eng.ProcessItem(ctx, testItem()); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}

	got := emitter.emitted()
	if len(got) != 1 {
		t.Fatalf("emitted %d records, want 1", len(got))
	}
	want := models.EffectRecord{
		UserID:  "uid-00001",
		AdID:    "ad-00001",
		OrderID: "od-00001",
		ProductInfo: models.ProductInfo{
			ProductID: "pg-00001",
			Price:     "12000",
		},
	}
	if got[0] != want {
		t.Errorf("effect = %+v, want %+v", got[0], want)
	}
}

func TestEngine_PurchaseBeforeViewDelaysEmission(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.ProcessItem(ctx, testItem()); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}
	if got := emitter.emitted(); len(got) != 0 {
		t.Fatalf("emitted %d records with purchase only, want 0", len(got))
	}
	if state := eng.StateForKey("uid-00001_pg-00001"); state != StatePurchaseOnly {
		t.Errorf("state = %v, want PURCHASE_ONLY", state)
	}

	// Emission occurs immediately on the view's Put.
	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}
	if got := emitter.emitted(); len(got) != 1 {
		t.Errorf("emitted %d records after view arrived, want 1", len(got))
	}
}

func TestEngine_RefiresOnOverwrite(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}
	if err := eng.ProcessItem(ctx, testItem()); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}

	// Overwriting the view side while the purchase side is present re-fires
	// with the new ad id: a live table join, not a one-shot join.
	v2 := testView()
	v2.AdID = "ad-00002"
	if err := eng.ProcessView(ctx, v2); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}

	// Overwriting the purchase side re-fires again with the new order.
	p2 := testItem()
	p2.OrderID = "od-00002"
	if err := eng.ProcessItem(ctx, p2); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}

	got := emitter.emitted()
	if len(got) != 3 {
		t.Fatalf("emitted %d records, want 3 (initial join + two re-fires)", len(got))
	}
	if got[1].AdID != "ad-00002" {
		t.Errorf("re-fire used adId %q, want the overwritten value ad-00002", got[1].AdID)
	}
	if got[2].AdID != "ad-00002" || got[2].OrderID != "od-00002" {
		t.Errorf("second re-fire = %+v, want most-recent values on both sides", got[2])
	}
}

func TestEngine_DisqualifiedViewNeverEntersTable(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	v := testView()
	v.WatchDuration = "10" // boundary: excluded
	if err := eng.ProcessView(ctx, v); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}

	if eng.AdTableLen() != 0 {
		t.Error("disqualified view entered the ad table")
	}
	if err := eng.ProcessItem(ctx, testItem()); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}
	if got := emitter.emitted(); len(got) != 0 {
		t.Errorf("emitted %d records, want 0 with no qualifying view", len(got))
	}
}

func TestEngine_ExpensiveItemNeverJoins(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}

	p := testItem()
	p.Price = "1500000"
	if err := eng.ProcessItem(ctx, p); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}

	if eng.PurchaseTableLen() != 0 {
		t.Error("over-ceiling item entered the purchase table")
	}
	if got := emitter.emitted(); len(got) != 0 {
		t.Errorf("emitted %d records, want 0 despite matching view", len(got))
	}
}

func TestEngine_MalformedRecordsDroppedAndReported(t *testing.T) {
	t.Parallel()

	eng, emitter, sink := newTestEngine(t)
	ctx := context.Background()

	v := testView()
	v.WatchDuration = "thirty"
	if err := eng.ProcessView(ctx, v); err != nil {
		t.Fatalf("ProcessView should not fail on malformed record: %v", err)
	}

	p := testItem()
	p.Price = "cheap"
	if err := eng.ProcessItem(ctx, p); err != nil {
		t.Fatalf("ProcessItem should not fail on malformed record: %v", err)
	}

	if sink.dropCount() != 2 {
		t.Errorf("sink recorded %d drops, want 2", sink.dropCount())
	}
	if eng.AdTableLen() != 0 || eng.PurchaseTableLen() != 0 {
		t.Error("malformed records affected table state")
	}
	if got := emitter.emitted(); len(got) != 0 {
		t.Errorf("emitted %d records, want 0", len(got))
	}
}

func TestEngine_EmptyIdentifierDropped(t *testing.T) {
	t.Parallel()

	eng, _, sink := newTestEngine(t)
	ctx := context.Background()

	v := testView()
	v.ProductID = ""
	if err := eng.ProcessView(ctx, v); err != nil {
		t.Fatalf("ProcessView should not fail on unkeyable record: %v", err)
	}

	if sink.dropCount() != 1 {
		t.Errorf("sink recorded %d drops, want 1", sink.dropCount())
	}
	if eng.AdTableLen() != 0 {
		t.Error("unkeyable record entered the ad table")
	}
}

func TestEngine_EmitFailureSurfaces(t *testing.T) {
	t.Parallel()

	emitter := &mockEmitter{}
	eng, err := NewEngine(DefaultEngineConfig(), emitter, &mockSink{})
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	ctx := context.Background()

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}

	emitter.err = errors.New("broker gone")
	if err := eng.ProcessItem(ctx, testItem()); err == nil {
		t.Error("ProcessItem should surface the emission failure for redelivery")
	}

	// The table update itself must stick so a redelivered message re-joins.
	if eng.PurchaseTableLen() != 1 {
		t.Error("purchase table update lost on emit failure")
	}
}

func TestEngine_DistinctKeysDoNotJoin(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}

	p := testItem()
	p.ProductID = "pg-99999"
	if err := eng.ProcessItem(ctx, p); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}

	if got := emitter.emitted(); len(got) != 0 {
		t.Errorf("emitted %d records across distinct keys, want 0", len(got))
	}
	if state := eng.StateForKey("uid-00001_pg-00001"); state != StateAdOnly {
		t.Errorf("view key state = %v, want AD_ONLY", state)
	}
	if state := eng.StateForKey("uid-00001_pg-99999"); state != StatePurchaseOnly {
		t.Errorf("purchase key state = %v, want PURCHASE_ONLY", state)
	}
}

func TestEngine_StateTransitions(t *testing.T) {
	t.Parallel()

	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, key, err := eng.State("uid-00001", "pg-00001")
	if err != nil {
		t.Fatalf("State error: %v", err)
	}
	if key != "uid-00001_pg-00001" {
		t.Errorf("key = %q, want uid-00001_pg-00001", key)
	}
	if state != StateEmpty {
		t.Errorf("initial state = %v, want EMPTY", state)
	}

	if err := eng.ProcessView(ctx, testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}
	if state, _, _ = eng.State("uid-00001", "pg-00001"); state != StateAdOnly {
		t.Errorf("state after view = %v, want AD_ONLY", state)
	}

	if err := eng.ProcessItem(ctx, testItem()); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}
	if state, _, _ = eng.State("uid-00001", "pg-00001"); state != StateJoined {
		t.Errorf("state after both sides = %v, want JOINED", state)
	}

	if _, _, err := eng.State("", "pg-00001"); err == nil {
		t.Error("State should reject empty userId")
	}
}

func TestEngine_ConcurrentDistinctKeys(t *testing.T) {
	t.Parallel()

	eng, emitter, _ := newTestEngine(t)
	ctx := context.Background()

	const keys = 100
	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			user := "uid-" + itoa5(i)
			v := testView()
			v.UserID = user
			if err := eng.ProcessView(ctx, v); err != nil {
				t.Errorf("ProcessView error: %v", err)
			}

			p := testItem()
			p.UserID = user
			if err := eng.ProcessItem(ctx, p); err != nil {
				t.Errorf("ProcessItem error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := emitter.emitted(); len(got) != keys {
		t.Errorf("emitted %d records, want %d (one per key)", len(got), keys)
	}
}

func itoa5(n int) string {
	digits := []byte{'0', '0', '0', '0', '0'}
	for i := 4; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}

func TestEngine_SweepWithTTL(t *testing.T) {
	t.Parallel()

	cfg := DefaultEngineConfig()
	emitter := &mockEmitter{}
	eng, err := NewEngine(cfg, emitter, nil)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}

	// Without TTLs Sweep is a no-op.
	if err := eng.ProcessView(context.Background(), testView()); err != nil {
		t.Fatalf("ProcessView error: %v", err)
	}
	if n := eng.Sweep(); n != 0 {
		t.Errorf("Sweep evicted %d entries without TTL, want 0", n)
	}
}
