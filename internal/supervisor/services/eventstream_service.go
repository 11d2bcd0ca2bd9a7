// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package services

import (
	"context"
	"fmt"
)

// StreamRunner matches the event stream components' run loop. Satisfied
// by *eventstream.Components, which blocks in Run until the context is
// canceled or the router fails. Final resource teardown stays with the
// owner so a supervised restart does not tear down the transport.
type StreamRunner interface {
	Run(ctx context.Context) error
}

// EventStreamService wraps the event stream router as a supervised
// service. A router failure surfaces here and suture restarts the run
// loop according to its backoff policy.
type EventStreamService struct {
	runner StreamRunner
	name   string
}

// NewEventStreamService creates an event stream service wrapper.
func NewEventStreamService(runner StreamRunner) *EventStreamService {
	return &EventStreamService{
		runner: runner,
		name:   "event-stream",
	}
}

// Serve implements suture.Service.
func (s *EventStreamService) Serve(ctx context.Context) error {
	if err := s.runner.Run(ctx); err != nil {
		return fmt.Errorf("event stream run failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *EventStreamService) String() string {
	return s.name
}
