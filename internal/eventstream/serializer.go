// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package eventstream

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/adeval/adeval/internal/models"
)

// Serializer handles event encoding/decoding for NATS messages.
// Decoding validates the structural shape (required identifiers present);
// numeric-string semantics are checked later by the qualifier.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// DecodeViewEvent converts JSON bytes to a validated view event.
func (s *Serializer) DecodeViewEvent(data []byte) (*models.ViewEvent, error) {
	var v models.ViewEvent
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal view event: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("validate view event: %w", err)
	}
	return &v, nil
}

// DecodePurchaseEvent converts JSON bytes to a validated purchase event.
func (s *Serializer) DecodePurchaseEvent(data []byte) (*models.PurchaseEvent, error) {
	var p models.PurchaseEvent
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal purchase event: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate purchase event: %w", err)
	}
	return &p, nil
}

// DecodePurchaseLineItem converts JSON bytes to a validated line item.
func (s *Serializer) DecodePurchaseLineItem(data []byte) (*models.PurchaseLineItem, error) {
	var li models.PurchaseLineItem
	if err := json.Unmarshal(data, &li); err != nil {
		return nil, fmt.Errorf("unmarshal line item: %w", err)
	}
	if err := li.Validate(); err != nil {
		return nil, fmt.Errorf("validate line item: %w", err)
	}
	return &li, nil
}

// EncodeLineItem converts a line item to JSON bytes.
func (s *Serializer) EncodeLineItem(li *models.PurchaseLineItem) ([]byte, error) {
	data, err := json.Marshal(li)
	if err != nil {
		return nil, fmt.Errorf("marshal line item: %w", err)
	}
	return data, nil
}

// EncodeEffectRecord converts an effect record to JSON bytes.
func (s *Serializer) EncodeEffectRecord(rec *models.EffectRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal effect record: %w", err)
	}
	return data, nil
}
