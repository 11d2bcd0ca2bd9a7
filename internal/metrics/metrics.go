// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package metrics provides Prometheus instrumentation for the join pipeline.
//
// Metrics are exposed at /metrics in Prometheus text format. They cover the
// per-stage record counts (received, qualified, dropped), the materialized
// table sizes, the join output, and the transport publish/consume path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsReceived counts raw records consumed per input stream.
	RecordsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_records_received_total",
			Help: "Raw records consumed from the input streams",
		},
		[]string{"stream"},
	)

	// RecordsQualified counts records that passed their qualification predicate.
	RecordsQualified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_records_qualified_total",
			Help: "Records that passed qualification and entered a table",
		},
		[]string{"stream"},
	)

	// RecordsDropped counts records dropped before table entry, by reason.
	// Reasons: disqualified, malformed, invalid_key.
	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_records_dropped_total",
			Help: "Records dropped before entering a table",
		},
		[]string{"stream", "reason"},
	)

	// LineItemsExpanded counts single-item records produced by fan-out.
	LineItemsExpanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adeval_line_items_expanded_total",
			Help: "Purchase line items produced by fan-out expansion",
		},
	)

	// EffectsEmitted counts joined effect records handed to the emitter.
	EffectsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adeval_effects_emitted_total",
			Help: "Effect records emitted by the join engine",
		},
	)

	// EmitFailures counts emissions that failed after retries were exhausted.
	EmitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adeval_emit_failures_total",
			Help: "Effect emissions that failed after bounded retries",
		},
	)

	// TableEntries tracks the current number of live entries per table.
	TableEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adeval_table_entries",
			Help: "Live entries in the materialized tables",
		},
		[]string{"table"},
	)

	// ProcessingDuration observes per-record processing latency through the
	// qualify-key-put-join chain.
	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adeval_processing_duration_seconds",
			Help:    "Per-record processing duration through the join pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	// TransportPublished counts messages published to the transport.
	TransportPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_transport_published_total",
			Help: "Messages published to the pub/sub transport",
		},
		[]string{"topic"},
	)

	// TransportConsumed counts messages consumed from the transport.
	TransportConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_transport_consumed_total",
			Help: "Messages consumed from the pub/sub transport",
		},
		[]string{"topic"},
	)

	// TransportParseFailures counts undecodable messages routed to the poison queue.
	TransportParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adeval_transport_parse_failures_total",
			Help: "Messages that could not be decoded and were poisoned",
		},
		[]string{"topic"},
	)
)

// Stream label values for the pipeline metrics.
const (
	StreamViews     = "views"
	StreamPurchases = "purchases"
	StreamItems     = "purchase_items"
)

// Drop reason label values.
const (
	ReasonDisqualified = "disqualified"
	ReasonMalformed    = "malformed"
	ReasonInvalidKey   = "invalid_key"
)

// Table label values.
const (
	TableAds       = "ads"
	TablePurchases = "purchases"
)

// ObserveProcessing records one processed record's latency for a stream.
func ObserveProcessing(stream string, d time.Duration) {
	ProcessingDuration.WithLabelValues(stream).Observe(d.Seconds())
}

// SetTableSize updates the live-entry gauge for a table.
func SetTableSize(table string, n int) {
	TableEntries.WithLabelValues(table).Set(float64(n))
}
