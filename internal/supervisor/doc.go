// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package supervisor provides the suture-based supervision tree.
//
// The tree has two layers under the root:
//   - messaging: event stream router and the table sweeper
//   - api: HTTP server
//
// This structure provides failure isolation. A crash in the messaging
// layer does not take down the HTTP surface, so health and state
// introspection stay available while the router restarts.
package supervisor
