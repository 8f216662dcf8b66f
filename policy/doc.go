// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy decides which outbound domains the egress proxy may
// reach.
//
// Two allowlists feed the decision. The config allowlist is an ordered,
// immutable list of domain patterns loaded at startup: exact domains
// ("github.com"), wildcard-subdomain patterns ("*.github.com", which
// also matches the bare apex), and the universal wildcard ("*"). The
// session allowlist maps a session identifier to domains approved
// dynamically at runtime.
//
// When neither allowlist matches, the Manager parks the connection
// behind a pending approval request: a one-shot responder that an
// external approver resolves with Approved or Denied, raced against
// the configured timeout. Approving a domain adds it to the session
// allowlist, so subsequent checks for the same session pass without
// another round trip to the approver.
//
// Nothing in this package touches the network; the proxy and the
// control plane drive it.
package policy
