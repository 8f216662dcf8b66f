// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "fmt"

// Action is the outcome of a policy check.
type Action int

const (
	// Allow means the domain is covered by an allowlist and the
	// connection may proceed.
	Allow Action = iota

	// Deny means the domain is explicitly forbidden. Reserved for
	// future deny-lists; current checks never return it.
	Deny

	// NeedsApproval means no allowlist covers the domain and an
	// external approver must decide.
	NeedsApproval
)

// String returns the action as a log-friendly word.
func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case NeedsApproval:
		return "needs_approval"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a pending approval request.
type Decision int

const (
	// Approved means the approver allowed the domain. The domain is
	// added to the session allowlist.
	Approved Decision = iota

	// Denied means the approver rejected the domain, or the request
	// was abandoned before a decision arrived.
	Denied

	// Timeout means no decision arrived within the configured
	// approval timeout.
	Timeout
)

// String returns the decision as a log-friendly word.
func (d Decision) String() string {
	switch d {
	case Approved:
		return "approved"
	case Denied:
		return "denied"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ParseDecision parses the string form produced by String. Used by the
// control protocol, which carries decisions as strings.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "approved":
		return Approved, nil
	case "denied":
		return Denied, nil
	case "timeout":
		return Timeout, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", s)
	}
}
