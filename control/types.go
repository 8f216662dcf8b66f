// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"github.com/bureau-foundation/egress/policy"
	"github.com/bureau-foundation/egress/proxy"
)

// Shared request and reply shapes for the control actions. Both the
// daemon-side handlers and the CLI decode these; json tags name the
// wire fields for CBOR and for the CLI's --json output alike.

// PendingReply is the response to the "pending" action.
type PendingReply struct {
	// Requests are the outstanding approval requests, sorted by
	// domain, then session, then id.
	Requests []policy.PendingRequest `json:"requests"`
}

// ResolveRequest carries the "resolve" action parameters.
type ResolveRequest struct {
	// ID is the pending request id being resolved.
	ID string `json:"id"`

	// Decision is "approved", "denied", or "timeout".
	Decision string `json:"decision"`
}

// TrustRequest carries the "trust" and "revoke" action parameters.
type TrustRequest struct {
	// Session identifies the client session the grant applies to.
	Session string `json:"session"`

	// Domain is the domain to trust or revoke. Matched exactly
	// (after lowercasing), not as a wildcard pattern.
	Domain string `json:"domain"`
}

// TrustedRequest carries the "trusted" action parameters.
type TrustedRequest struct {
	// Session identifies the client session to inspect.
	Session string `json:"session"`
}

// TrustedReply is the response to the "trusted" action.
type TrustedReply struct {
	// Domains is everything the session may currently reach: the
	// configured allowlist patterns followed by the session's
	// dynamically approved domains.
	Domains []string `json:"domains"`
}

// StatusReply is the response to the "status" action.
type StatusReply struct {
	// ListenAddress is the proxy's bound listen address.
	ListenAddress string `json:"listen_address"`

	// Pending is the number of outstanding approval requests.
	Pending int `json:"pending"`

	// Sessions is the number of sessions holding at least one
	// dynamically approved domain.
	Sessions int `json:"sessions"`

	// AllowlistFingerprint identifies the configured allowlist: a
	// short BLAKE3 digest over the configured patterns. Two proxies
	// with the same fingerprint enforce the same static policy.
	// Session grants do not change the fingerprint.
	AllowlistFingerprint string `json:"allowlist_fingerprint"`

	// Stats are the proxy's traffic counters.
	Stats proxy.StatsSnapshot `json:"stats"`

	// UptimeSeconds is how long the daemon has been running.
	UptimeSeconds float64 `json:"uptime_seconds"`
}
