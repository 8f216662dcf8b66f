// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Egress is the operator CLI for the egress proxy daemon. It drives
// the daemon's control socket: listing and resolving pending domain
// approval requests, managing per-session trusted domains, and
// reading proxy status.
//
// The typical operator loop is "egress pending" to see what sandboxed
// code is waiting on, then "egress approve <id>" or "egress deny <id>"
// per request. "egress trust" pre-seeds a session's allowlist without
// waiting for a connection to ask.
//
// Every command accepts --socket to address a specific daemon; the
// default comes from $EGRESS_CONTROL_SOCKET or the compiled-in path.
// List and status commands accept --json for scripting.
package main
