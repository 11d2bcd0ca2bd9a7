// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import (
	"hash/fnv"
	"sync"
	"time"
)

// DefaultShardCount is the number of table shards when none is configured.
const DefaultShardCount = 64

// Table is a keyed last-write-wins store materializing one side of the join.
// Put is an unconditional overwrite and the single point of mutation;
// concurrent Puts to the same key race only with each other.
//
// The table is sharded by key hash so distinct keys contend only within a
// shard; there is no global lock. Entries live forever by default. A non-zero
// TTL enables the optional expiry extension: expired entries read as absent
// and are physically removed by Sweep. TTL never changes join semantics for
// still-live entries.
type Table[V any] struct {
	shards []tableShard[V]
	mask   uint32
	ttl    time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

type tableShard[V any] struct {
	mu      sync.RWMutex
	entries map[string]tableEntry[V]
}

type tableEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewTable creates a table with the given shard count and TTL.
// shards is rounded up to a power of two; zero means DefaultShardCount.
// ttl zero means unbounded retention, the default contract.
func NewTable[V any](shards int, ttl time.Duration) *Table[V] {
	if shards <= 0 {
		shards = DefaultShardCount
	}
	n := 1
	for n < shards {
		n <<= 1
	}

	t := &Table[V]{
		shards: make([]tableShard[V], n),
		mask:   uint32(n - 1),
		ttl:    ttl,
		now:    time.Now,
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]tableEntry[V])
	}
	return t
}

func (t *Table[V]) shardFor(key string) *tableShard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &t.shards[h.Sum32()&t.mask]
}

// Put stores value under key, overwriting any previous entry.
func (t *Table[V]) Put(key string, value V) {
	s := t.shardFor(key)
	s.mu.Lock()
	s.entries[key] = tableEntry[V]{value: value, storedAt: t.now()}
	s.mu.Unlock()
}

// Get returns the current entry for key and a presence flag.
// With a TTL configured, an expired entry reads as absent.
func (t *Table[V]) Get(key string) (V, bool) {
	s := t.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || t.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes the entry for key, if any.
func (t *Table[V]) Delete(key string) {
	s := t.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired
// ones.
func (t *Table[V]) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Sweep removes expired entries and returns how many were evicted.
// A no-op when no TTL is configured.
func (t *Table[V]) Sweep() int {
	if t.ttl <= 0 {
		return 0
	}

	evicted := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for key, e := range s.entries {
			if t.expired(e) {
				delete(s.entries, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}

func (t *Table[V]) expired(e tableEntry[V]) bool {
	return t.ttl > 0 && t.now().Sub(e.storedAt) > t.ttl
}
