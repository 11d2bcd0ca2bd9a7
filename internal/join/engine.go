// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/adeval/adeval/internal/logging"
	"github.com/adeval/adeval/internal/metrics"
	"github.com/adeval/adeval/internal/models"
)

// Emitter publishes joined effect records downstream. Implementations retry
// transient delivery failures within their own bounded policy and return an
// error only when delivery ultimately failed.
type Emitter interface {
	Emit(ctx context.Context, rec *models.EffectRecord) error
}

// ErrorSink receives per-record failures that terminate a single record's
// processing without affecting others.
type ErrorSink interface {
	RecordDropped(stream string, err error)
}

// loggingSink is the default ErrorSink, reporting drops through zerolog.
type loggingSink struct{}

// NewLoggingSink returns an ErrorSink that logs dropped records.
func NewLoggingSink() ErrorSink {
	return loggingSink{}
}

func (loggingSink) RecordDropped(stream string, err error) {
	logging.Warn().Str("stream", stream).Err(err).Msg("record dropped")
}

// EngineConfig holds the join engine configuration.
type EngineConfig struct {
	// Qualifier thresholds; zero values fall back to defaults.
	Qualifier QualifierConfig

	// ShardCount controls table sharding and key-lock striping.
	// Default: DefaultShardCount.
	ShardCount int

	// AdTableTTL / PurchaseTableTTL enable the optional expiry extension.
	// Zero (the default) means unbounded retention.
	AdTableTTL       time.Duration
	PurchaseTableTTL time.Duration
}

// DefaultEngineConfig returns production defaults: default thresholds,
// 64 shards, unbounded tables.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Qualifier:  DefaultQualifierConfig(),
		ShardCount: DefaultShardCount,
	}
}

// Engine owns the two materialized tables and performs the incremental
// table-table join. ProcessView and ProcessItem are the only mutation paths.
//
// For a given key, the Put and the join re-evaluation it triggers form one
// critical section; a striped key lock serializes them against concurrent
// Puts for the same key while leaving distinct keys free to proceed in
// parallel. The transport guarantees per-key arrival order, so the table
// always holds the most recently delivered value and a join uses that value
// unconditionally.
type Engine struct {
	qualifier *Qualifier
	ads       *Table[models.ViewEvent]
	purchases *Table[models.PurchaseLineItem]
	emitter   Emitter
	sink      ErrorSink

	locks    []sync.Mutex
	lockMask uint32
}

// NewEngine creates a join engine. The emitter is required; a nil sink falls
// back to the logging sink.
func NewEngine(cfg EngineConfig, emitter Emitter, sink ErrorSink) (*Engine, error) {
	if emitter == nil {
		return nil, errors.New("emitter required")
	}
	if sink == nil {
		sink = NewLoggingSink()
	}

	shards := cfg.ShardCount
	if shards <= 0 {
		shards = DefaultShardCount
	}
	n := 1
	for n < shards {
		n <<= 1
	}

	return &Engine{
		qualifier: NewQualifier(cfg.Qualifier),
		ads:       NewTable[models.ViewEvent](shards, cfg.AdTableTTL),
		purchases: NewTable[models.PurchaseLineItem](shards, cfg.PurchaseTableTTL),
		emitter:   emitter,
		sink:      sink,
		locks:     make([]sync.Mutex, n),
		lockMask:  uint32(n - 1),
	}, nil
}

func (e *Engine) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &e.locks[h.Sum32()&e.lockMask]
}

// ProcessView qualifies a view event, materializes it into the ad table, and
// re-evaluates the join for its key. Dropped records (disqualified, malformed,
// unkeyable) return nil; only a failed emission returns an error, so the
// at-least-once transport redelivers the triggering message.
func (e *Engine) ProcessView(ctx context.Context, v *models.ViewEvent) error {
	start := time.Now()
	defer func() { metrics.ObserveProcessing(metrics.StreamViews, time.Since(start)) }()

	ok, err := e.qualifier.QualifyView(v)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamViews, metrics.ReasonMalformed).Inc()
		e.sink.RecordDropped(metrics.StreamViews, err)
		return nil
	}
	if !ok {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamViews, metrics.ReasonDisqualified).Inc()
		return nil
	}

	key, err := DeriveKey(v.UserID, v.ProductID)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamViews, metrics.ReasonInvalidKey).Inc()
		e.sink.RecordDropped(metrics.StreamViews, err)
		return nil
	}

	mu := e.lockFor(key)
	mu.Lock()
	e.ads.Put(key, *v)
	item, present := e.purchases.Get(key)
	var emitErr error
	if present {
		emitErr = e.emit(ctx, v, &item)
	}
	mu.Unlock()

	metrics.RecordsQualified.WithLabelValues(metrics.StreamViews).Inc()
	metrics.SetTableSize(metrics.TableAds, e.ads.Len())

	if emitErr != nil {
		return fmt.Errorf("join on view update for %s: %w", key, emitErr)
	}
	return nil
}

// ProcessItem qualifies a purchase line item, materializes it into the
// purchase table, and re-evaluates the join for its key. Error semantics
// match ProcessView.
func (e *Engine) ProcessItem(ctx context.Context, p *models.PurchaseLineItem) error {
	start := time.Now()
	defer func() { metrics.ObserveProcessing(metrics.StreamItems, time.Since(start)) }()

	ok, err := e.qualifier.QualifyItem(p)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamItems, metrics.ReasonMalformed).Inc()
		e.sink.RecordDropped(metrics.StreamItems, err)
		return nil
	}
	if !ok {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamItems, metrics.ReasonDisqualified).Inc()
		return nil
	}

	key, err := DeriveKey(p.UserID, p.ProductID)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(metrics.StreamItems, metrics.ReasonInvalidKey).Inc()
		e.sink.RecordDropped(metrics.StreamItems, err)
		return nil
	}

	mu := e.lockFor(key)
	mu.Lock()
	e.purchases.Put(key, *p)
	view, present := e.ads.Get(key)
	var emitErr error
	if present {
		emitErr = e.emit(ctx, &view, p)
	}
	mu.Unlock()

	metrics.RecordsQualified.WithLabelValues(metrics.StreamItems).Inc()
	metrics.SetTableSize(metrics.TablePurchases, e.purchases.Len())

	if emitErr != nil {
		return fmt.Errorf("join on purchase update for %s: %w", key, emitErr)
	}
	return nil
}

// emit builds the effect record from the two sides and hands it to the
// emitter: adId from the view side, order and product fields from the
// purchase side.
func (e *Engine) emit(ctx context.Context, v *models.ViewEvent, p *models.PurchaseLineItem) error {
	rec := &models.EffectRecord{
		UserID:  p.UserID,
		AdID:    v.AdID,
		OrderID: p.OrderID,
		ProductInfo: models.ProductInfo{
			ProductID: p.ProductID,
			Price:     p.Price,
		},
	}

	if err := e.emitter.Emit(ctx, rec); err != nil {
		return err
	}

	metrics.EffectsEmitted.Inc()
	logging.Debug().
		Str("userId", rec.UserID).
		Str("adId", rec.AdID).
		Str("orderId", rec.OrderID).
		Str("productId", rec.ProductInfo.ProductID).
		Msg("effect emitted")
	return nil
}

// State derives the join state for a (user, product) pair.
func (e *Engine) State(userID, productID string) (KeyState, string, error) {
	key, err := DeriveKey(userID, productID)
	if err != nil {
		return StateEmpty, "", err
	}
	return e.StateForKey(key), key, nil
}

// StateForKey derives the join state for an already-formed key.
func (e *Engine) StateForKey(key string) KeyState {
	_, hasAd := e.ads.Get(key)
	_, hasPurchase := e.purchases.Get(key)

	switch {
	case hasAd && hasPurchase:
		return StateJoined
	case hasAd:
		return StateAdOnly
	case hasPurchase:
		return StatePurchaseOnly
	default:
		return StateEmpty
	}
}

// AdTableLen returns the ad table entry count.
func (e *Engine) AdTableLen() int { return e.ads.Len() }

// PurchaseTableLen returns the purchase table entry count.
func (e *Engine) PurchaseTableLen() int { return e.purchases.Len() }

// Sweep evicts expired entries from both tables and returns the total number
// evicted. A no-op without TTLs.
func (e *Engine) Sweep() int {
	n := e.ads.Sweep() + e.purchases.Sweep()
	if n > 0 {
		metrics.SetTableSize(metrics.TableAds, e.ads.Len())
		metrics.SetTableSize(metrics.TablePurchases, e.purchases.Len())
	}
	return n
}
