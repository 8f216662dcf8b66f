// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides the byte-relay plumbing for proxy tunnels.
//
// [Relay] copies bytes bidirectionally between a client and an
// upstream connection, propagating EOF with CloseWrite so each
// direction drains independently. [IsExpectedCloseError] classifies
// the errors that occur during normal tunnel teardown (EOF, closed
// connection, broken pipe, connection reset) so they are not logged
// as failures.
package netutil
