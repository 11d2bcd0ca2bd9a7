// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package models defines the wire shapes flowing through the join pipeline.
//
// The inbound shapes (ViewEvent, PurchaseEvent) and the outbound shape
// (EffectRecord) form a fixed, closed set; there is no open-ended type
// dispatch. Numeric fields that upstream producers emit as decimal strings
// (watch duration, price) stay strings on the wire and are parsed at the
// qualification stage, where a parse failure is a per-record data error
// rather than a deserialization failure.
package models

import "github.com/goccy/go-json"

// ViewEvent is an ad-viewing event produced by the upstream ad tracker.
// Immutable once received.
type ViewEvent struct {
	UserID        string `json:"userId"`
	ProductID     string `json:"productId"`
	AdID          string `json:"adId"`
	AdType        string `json:"adType"` // banner, clip, main, live
	WatchDuration string `json:"watchDuration"`
	WatchedAt     string `json:"watchedAt"` // yyyyMMddHHmmss
}

// Validate checks identity fields required for keying and joining.
func (v *ViewEvent) Validate() error {
	if v.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if v.ProductID == "" {
		return &ValidationError{Field: "productId", Message: "required"}
	}
	if v.AdID == "" {
		return &ValidationError{Field: "adId", Message: "required"}
	}
	return nil
}

// PurchaseItem is one product entry inside a multi-item purchase.
type PurchaseItem struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
}

// PurchaseEvent is a multi-item purchase record produced by the order system.
// It is expanded into PurchaseLineItem records and discarded; it never enters
// a table itself.
type PurchaseEvent struct {
	UserID      string         `json:"userId"`
	OrderID     string         `json:"orderId"`
	PurchasedAt string         `json:"purchasedAt"` // yyyyMMddHHmmss
	Items       []PurchaseItem `json:"items"`
}

// Validate checks identity fields required for fan-out.
func (p *PurchaseEvent) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if p.OrderID == "" {
		return &ValidationError{Field: "orderId", Message: "required"}
	}
	return nil
}

// PurchaseLineItem is a single-product purchase record derived from a
// PurchaseEvent by fan-out expansion. Transient until it enters the
// purchase table.
type PurchaseLineItem struct {
	UserID      string `json:"userId"`
	ProductID   string `json:"productId"`
	OrderID     string `json:"orderId"`
	PurchasedAt string `json:"purchasedAt"`
	Price       string `json:"price"`
}

// Validate checks identity fields required for keying and joining.
func (p *PurchaseLineItem) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if p.OrderID == "" {
		return &ValidationError{Field: "orderId", Message: "required"}
	}
	return nil
}

// ProductInfo carries the purchase-side product fields of an effect record.
type ProductInfo struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
}

// EffectRecord is the joined output: a qualifying view and a qualifying
// purchase existed for the same (user, product) key. It is emitted downstream
// and not stored.
type EffectRecord struct {
	UserID      string      `json:"userId"`
	AdID        string      `json:"adId"`
	OrderID     string      `json:"orderId"`
	ProductInfo ProductInfo `json:"productInfo"`
}

// Marshal encodes the record for publishing.
func (e *EffectRecord) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
