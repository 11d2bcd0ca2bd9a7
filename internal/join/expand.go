// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import "github.com/adeval/adeval/internal/models"

// Expand converts one multi-item purchase event into exactly len(p.Items)
// single-item line records. Each line item inherits userId, orderId and
// purchasedAt from the parent and takes productId and price from its item.
//
// Emission order equals source item order; this is not semantically required
// downstream but keeps expansion deterministic. An empty Items list yields an
// empty slice, not an error.
func Expand(p *models.PurchaseEvent) []models.PurchaseLineItem {
	items := make([]models.PurchaseLineItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, models.PurchaseLineItem{
			UserID:      p.UserID,
			ProductID:   it.ProductID,
			OrderID:     p.OrderID,
			PurchasedAt: p.PurchasedAt,
			Price:       it.Price,
		})
	}
	return items
}
