// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

/*
Package eventstream provides the Watermill/NATS JetStream plumbing around the
join engine.

The pipeline consists of three router handlers:

  - view handler: view-events -> decode -> JoinEngine.ProcessView
  - fanout handler: purchase-events -> decode -> expand -> purchase-items
  - item handler: purchase-items -> decode -> JoinEngine.ProcessItem

Joined records leave through the EffectEmitter, which publishes to
effect-events with bounded exponential backoff.

Failure routing follows the error types in errors.go: decode failures are
permanent (straight to the poison queue), downstream failures are retryable
(redelivered by the retry middleware, then poisoned).

Components wires the embedded NATS server, stream provisioning, publisher,
subscribers, and router into a single start/stop unit for supervision.
*/
package eventstream
