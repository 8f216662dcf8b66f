// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package proxy implements the egress proxy server: the single network
// exit for sandboxed processes, applying domain allowlists with
// human-in-the-loop approval for everything else.
//
// [Server] accepts plain TCP connections and speaks just enough
// HTTP/1.1 to classify each one: a CONNECT request opens an opaque
// tunnel to the requested host, while an absolute-URL request
// (GET http://host/path) is rewritten to origin form and forwarded.
// Both paths consult a [policy.Manager] before any upstream connection
// is made. A domain that is neither allowlisted in config nor
// previously approved for the session parks the connection on a
// pending approval request; a human approves or denies it through the
// control socket, or the wait times out.
//
// The proxy never inspects tunnel payloads. After the policy gate and
// the upstream dial, bytes are relayed verbatim in both directions
// with half-close propagation, so TLS runs end to end between the
// client and the destination.
//
// Configuration ([Config]) is YAML: the listen address, the ordered
// static allowlist patterns, the approval timeout, and operational
// limits. [Stats] counts connections and policy outcomes for the
// control socket's status report.
package proxy
