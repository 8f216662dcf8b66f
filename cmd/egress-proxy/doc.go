// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Egress-proxy is the egress proxy daemon. It accepts HTTP CONNECT
// tunnels and absolute-URL forward requests on a loopback TCP port,
// checks each destination domain against a static allowlist and
// per-session approvals, and relays approved traffic byte for byte.
//
// Domains not covered by any allowlist are parked as pending approval
// requests: the connection waits (up to the configured timeout) while
// an operator approves or denies the domain over the control socket.
// An approval admits the waiting connection and adds the domain to
// that session's allowlist for the rest of the daemon's lifetime.
//
// # Configuration
//
// The daemon reads a YAML config file (--config) with the listen
// address, control socket path, the static allowlist, and timeouts.
// --listen and --control-socket override the file. All settings have
// defaults, so the daemon also runs with no config at all.
//
// # Control socket
//
// Operators drive approvals through a Unix socket (one CBOR
// request-response per connection): list pending requests, resolve
// them, manage per-session trust, and read status. The egress CLI is
// the standard client. The socket file's permissions are the only
// access control.
//
// # Shutdown
//
// On SIGINT or SIGTERM the daemon stops accepting connections, drains
// the control socket, and denies any connections still waiting for
// approval. Established tunnels are not severed; they run until either
// side closes.
package main
