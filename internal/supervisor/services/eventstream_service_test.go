// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRunner struct {
	err error
}

func (r *fakeRunner) Run(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return nil
}

func TestEventStreamService_RunsUntilCanceled(t *testing.T) {
	t.Parallel()

	svc := NewEventStreamService(&fakeRunner{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestEventStreamService_SurfacesRunFailure(t *testing.T) {
	t.Parallel()

	runErr := errors.New("router crashed")
	svc := NewEventStreamService(&fakeRunner{err: runErr})

	err := svc.Serve(context.Background())
	if !errors.Is(err, runErr) {
		t.Errorf("Serve returned %v, want wrapped run error", err)
	}
}
