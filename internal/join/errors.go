// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

package join

import "errors"

// ErrMalformedRecord indicates a record carried an unparseable numeric field.
// The record is dropped and reported to the error sink; the pipeline continues.
var ErrMalformedRecord = errors.New("malformed record")

// ErrInvalidKeyInput indicates a record was missing an identifier required to
// form a join key. Empty identifiers never form a valid key.
var ErrInvalidKeyInput = errors.New("invalid key input")

// ErrDownstreamUnavailable indicates an effect record could not be delivered
// to the output channel after bounded retries.
var ErrDownstreamUnavailable = errors.New("downstream unavailable")
