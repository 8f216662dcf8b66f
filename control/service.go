// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/egress/lib/clock"
	"github.com/bureau-foundation/egress/lib/codec"
	"github.com/bureau-foundation/egress/policy"
	"github.com/bureau-foundation/egress/proxy"
)

// Service binds the control actions to a running proxy. It holds the
// approval manager that the actions read and mutate, and the proxy
// server whose address and counters the status action reports.
type Service struct {
	approvals *policy.Manager
	proxy     *proxy.Server
	clock     clock.Clock
	startedAt time.Time
}

// NewService creates the action service. The startup instant is taken
// from clk now; status reports uptime relative to it.
func NewService(approvals *policy.Manager, proxyServer *proxy.Server, clk clock.Clock) *Service {
	return &Service{
		approvals: approvals,
		proxy:     proxyServer,
		clock:     clk,
		startedAt: clk.Now(),
	}
}

// RegisterActions registers all control actions on the server.
func (s *Service) RegisterActions(server *Server) {
	// Approval queue.
	server.Handle("pending", s.handlePending)
	server.Handle("resolve", s.handleResolve)

	// Session trust, bypassing the approval flow.
	server.Handle("trust", s.handleTrust)
	server.Handle("revoke", s.handleRevoke)
	server.Handle("trusted", s.handleTrusted)

	// Diagnostics.
	server.Handle("status", s.handleStatus)
}

// --- Pending ---

// handlePending lists the outstanding approval requests.
func (s *Service) handlePending(ctx context.Context, raw []byte) (any, error) {
	requests := s.approvals.PendingRequests()

	// Sorted for deterministic output.
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].Domain != requests[j].Domain {
			return requests[i].Domain < requests[j].Domain
		}
		if requests[i].Session != requests[j].Session {
			return requests[i].Session < requests[j].Session
		}
		return requests[i].ID < requests[j].ID
	})

	return PendingReply{Requests: requests}, nil
}

// --- Resolve ---

// handleResolve applies an operator decision to a pending request.
// Resolving an id that is no longer pending (already resolved, or
// retired by shutdown) succeeds without effect; the operator lost a
// race, not made an error.
func (s *Service) handleResolve(ctx context.Context, raw []byte) (any, error) {
	var request ResolveRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}
	if request.Decision == "" {
		return nil, fmt.Errorf("missing required field: decision")
	}

	decision, err := policy.ParseDecision(request.Decision)
	if err != nil {
		return nil, err
	}

	s.approvals.Resolve(request.ID, decision)
	return nil, nil
}

// --- Trust ---

// handleTrust adds a domain to a session's allowlist directly.
func (s *Service) handleTrust(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeTrustRequest(raw)
	if err != nil {
		return nil, err
	}
	s.approvals.AddTrustedDomain(request.Session, request.Domain)
	return nil, nil
}

// handleRevoke removes a previously granted domain from a session.
func (s *Service) handleRevoke(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeTrustRequest(raw)
	if err != nil {
		return nil, err
	}
	s.approvals.RemoveTrustedDomain(request.Session, request.Domain)
	return nil, nil
}

// decodeTrustRequest decodes and validates the shared trust/revoke
// request shape.
func decodeTrustRequest(raw []byte) (TrustRequest, error) {
	var request TrustRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return request, fmt.Errorf("decoding request: %w", err)
	}
	if request.Session == "" {
		return request, fmt.Errorf("missing required field: session")
	}
	if request.Domain == "" {
		return request, fmt.Errorf("missing required field: domain")
	}
	return request, nil
}

// handleTrusted lists everything a session may currently reach.
func (s *Service) handleTrusted(ctx context.Context, raw []byte) (any, error) {
	var request TrustedRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Session == "" {
		return nil, fmt.Errorf("missing required field: session")
	}

	return TrustedReply{
		Domains: s.approvals.ListTrustedDomains(request.Session),
	}, nil
}

// --- Status ---

// handleStatus reports the proxy's address, policy state, and traffic
// counters.
func (s *Service) handleStatus(ctx context.Context, raw []byte) (any, error) {
	uptime := s.clock.Now().Sub(s.startedAt)

	// Prefer the bound address: with port 0 in the config the two
	// differ, and operators want the port that is actually open.
	address := s.proxy.ListenAddress
	if bound := s.proxy.Addr(); bound != nil {
		address = bound.String()
	}

	return StatusReply{
		ListenAddress:        address,
		Pending:              len(s.approvals.PendingRequests()),
		Sessions:             s.approvals.SessionCount(),
		AllowlistFingerprint: allowlistFingerprint(s.approvals.ConfigPatterns()),
		Stats:                s.proxy.Stats().Snapshot(),
		UptimeSeconds:        uptime.Seconds(),
	}, nil
}

// allowlistFingerprint computes a short BLAKE3 digest over the
// configured allowlist patterns. Patterns are hashed in configured
// order with a separator so that ["a.example", "b"] and
// ["a.example.b"] cannot collide.
func allowlistFingerprint(patterns []string) string {
	hasher := blake3.New()
	for _, pattern := range patterns {
		hasher.Write([]byte(pattern))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil)[:6])
}
