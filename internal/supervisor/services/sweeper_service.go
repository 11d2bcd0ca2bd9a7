// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package services

import (
	"context"
	"time"

	"github.com/adeval/adeval/internal/logging"
	"github.com/adeval/adeval/internal/metrics"
)

// TableSweeper matches the join engine's expiry surface.
type TableSweeper interface {
	Sweep() int
	AdTableLen() int
	PurchaseTableLen() int
}

// SweeperService periodically evicts expired table entries and refreshes
// the table size gauges. Only useful when table TTLs are configured;
// with zero TTLs entries never expire and the sweeper should not be
// registered.
type SweeperService struct {
	sweeper  TableSweeper
	interval time.Duration
	name     string
}

// NewSweeperService creates a sweeper running at the given interval.
func NewSweeperService(sweeper TableSweeper, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{
		sweeper:  sweeper,
		interval: interval,
		name:     "table-sweeper",
	}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			evicted := s.sweeper.Sweep()
			metrics.SetTableSize(metrics.TableAds, s.sweeper.AdTableLen())
			metrics.SetTableSize(metrics.TablePurchases, s.sweeper.PurchaseTableLen())
			if evicted > 0 {
				logging.Debug().Int("evicted", evicted).Msg("Swept expired table entries")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *SweeperService) String() string {
	return s.name
}
