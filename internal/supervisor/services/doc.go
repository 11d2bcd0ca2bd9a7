// AdEval - Ad Effectiveness Stream Join Service
// Copyright 2026 The adeval authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/adeval/adeval

// Package services provides suture.Service wrappers for the application
// components: the HTTP server, the event stream router, and the join
// table sweeper.
package services
