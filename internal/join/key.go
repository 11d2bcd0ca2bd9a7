// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import "fmt"

// KeySeparator joins the user and product identifiers into the composite key.
const KeySeparator = "_"

// DeriveKey computes the composite join key userID + "_" + productID.
// It is a pure function: identical inputs always produce the identical key.
//
// Empty identifiers never form a valid join key; callers must reject such
// records before table entry. Note the known collision edge case: distinct
// pairs can concatenate to the same key (userID "a_b" with product "c" vs
// userID "a" with product "b_c"). The separator is not escaped; upstream
// identifier formats (uid-NNNNN, pg-NNNNN) do not contain underscores.
func DeriveKey(userID, productID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty userId", ErrInvalidKeyInput)
	}
	if productID == "" {
		return "", fmt.Errorf("%w: empty productId", ErrInvalidKeyInput)
	}
	return userID + KeySeparator + productID, nil
}
