// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

// KeyState describes the join progress for a single key. It is derived from
// the two tables, not stored: entries only ever move toward being replaced by
// newer values, and there is no terminal delete state in the base design.
type KeyState int

const (
	// StateEmpty: neither table has an entry for the key.
	StateEmpty KeyState = iota
	// StateAdOnly: the ad table has an entry, the purchase table does not.
	StateAdOnly
	// StatePurchaseOnly: the purchase table has an entry, the ad table does not.
	StatePurchaseOnly
	// StateJoined: both tables have an entry. Re-entered on every update
	// while both remain present, each re-entry triggering one emission.
	StateJoined
)

// String returns the state name for logs and the ops API.
func (s KeyState) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateAdOnly:
		return "AD_ONLY"
	case StatePurchaseOnly:
		return "PURCHASE_ONLY"
	case StateJoined:
		return "JOINED"
	default:
		return "UNKNOWN"
	}
}
