// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These centralize
// the one legitimate raw-stderr pattern that exists before the
// structured logger is initialized: fatal error reporting from main().
//
// Both egress binaries route run() errors through Fatal so that error
// formatting and the exit code stay consistent.
package process
