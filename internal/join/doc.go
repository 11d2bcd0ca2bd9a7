// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

/*
Package join implements the core ad-effectiveness correlation logic: the
stream-to-table materialization of view and purchase records and the live
table-table equi-join between them.

# Pipeline

Raw view events and expanded purchase line items pass through a qualification
predicate, have a composite (user, product) key derived, and are materialized
into last-write-wins tables. Every table update re-evaluates the join for that
key; when both sides are present an EffectRecord is built and handed to the
Emitter. The join is never windowed: a view materialized at any time joins
with a purchase materialized arbitrarily later, and vice versa, as long as
both entries are live.

# Re-firing

This is a live table join, not a one-shot event join. If both sides are
present and either side is overwritten with a new value, the join fires again
with the new value. Exactly one emission occurs per triggering Put while the
other side is present.

# Concurrency

A Put and the join re-evaluation it triggers form one critical section scoped
to the key; distinct keys proceed concurrently through striped key locks. The
tables themselves are sharded maps so no global lock exists anywhere on the
hot path.

# Failure handling

Per-record failures (malformed numerics, empty identifiers) drop that record,
notify the error sink, and never affect other records. Emission failures are
surfaced to the caller so the at-least-once transport can redeliver.
*/
package join
