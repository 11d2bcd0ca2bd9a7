// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import (
	"fmt"
	"strconv"

	"github.com/adeval/adeval/internal/models"
)

// Default qualification thresholds. Both are exposed through QualifierConfig
// so test suites can exercise boundary values.
const (
	// DefaultViewDurationThreshold is the minimum exclusive watch duration
	// for a view to qualify.
	DefaultViewDurationThreshold = 10

	// DefaultPriceCeiling is the maximum exclusive price for a purchase
	// line item to qualify.
	DefaultPriceCeiling = 1_000_000
)

// QualifierConfig holds the adjustable qualification thresholds.
type QualifierConfig struct {
	// ViewDurationThreshold: a view qualifies iff watchDuration is strictly
	// greater than this value.
	ViewDurationThreshold int

	// PriceCeiling: a line item qualifies iff price is strictly less than
	// this value.
	PriceCeiling int
}

// DefaultQualifierConfig returns the production thresholds.
func DefaultQualifierConfig() QualifierConfig {
	return QualifierConfig{
		ViewDurationThreshold: DefaultViewDurationThreshold,
		PriceCeiling:          DefaultPriceCeiling,
	}
}

// Qualifier evaluates the stateless admission predicates in front of the
// materialized tables. Disqualified records never affect table state.
type Qualifier struct {
	config QualifierConfig
}

// NewQualifier creates a qualifier with the given thresholds.
// Zero thresholds fall back to the defaults.
func NewQualifier(cfg QualifierConfig) *Qualifier {
	if cfg.ViewDurationThreshold == 0 {
		cfg.ViewDurationThreshold = DefaultViewDurationThreshold
	}
	if cfg.PriceCeiling == 0 {
		cfg.PriceCeiling = DefaultPriceCeiling
	}
	return &Qualifier{config: cfg}
}

// QualifyView reports whether a view event qualifies for the ad table:
// watchDuration strictly greater than the threshold. A duration of exactly
// the threshold is excluded.
//
// A non-numeric duration is a data error: the caller drops the record and
// reports ErrMalformedRecord to the error sink.
func (q *Qualifier) QualifyView(v *models.ViewEvent) (bool, error) {
	d, err := strconv.Atoi(v.WatchDuration)
	if err != nil {
		return false, fmt.Errorf("%w: watchDuration %q: %v", ErrMalformedRecord, v.WatchDuration, err)
	}
	return d > q.config.ViewDurationThreshold, nil
}

// QualifyItem reports whether a purchase line item qualifies for the purchase
// table: price strictly less than the ceiling. A price of exactly the ceiling
// is excluded.
func (q *Qualifier) QualifyItem(p *models.PurchaseLineItem) (bool, error) {
	price, err := strconv.Atoi(p.Price)
	if err != nil {
		return false, fmt.Errorf("%w: price %q: %v", ErrMalformedRecord, p.Price, err)
	}
	return price < q.config.PriceCeiling, nil
}

// Config returns the active thresholds.
func (q *Qualifier) Config() QualifierConfig {
	return q.config
}
