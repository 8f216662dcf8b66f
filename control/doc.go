// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the Unix-socket control protocol between
// the egress proxy daemon and the operator CLI.
//
// The protocol is one CBOR request-response cycle per connection: the
// client connects, writes a single CBOR map carrying an "action" field
// plus action-specific fields, and reads back a single CBOR response
// envelope {ok, error?, data?}. CBOR is self-delimiting, so there is
// no framing beyond the encoding itself.
//
// Server hosts the socket and routes requests to registered
// ActionFunc handlers. Service binds the proxy's action set (pending,
// resolve, trust, revoke, trusted, status) to a policy.Manager and a
// proxy.Server. Client is the caller side used by the CLI.
//
// Access control is the socket file's permissions. Anyone who can
// connect can approve domains, so the daemon should place the socket
// in a directory writable only by operators.
package control
