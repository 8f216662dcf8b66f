// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/egress/lib/clock"
)

// Filter decides whether a session may reach a domain. The Manager is
// the production implementation; the single-method interface exists so
// components that only check (never approve) do not depend on the full
// approval surface.
type Filter interface {
	Check(session, domain string) Action
}

// PendingRequest is a snapshot of one outstanding approval request,
// for display to an approver.
type PendingRequest struct {
	// ID is the request's unique identifier, used to resolve it.
	ID string `json:"id"`

	// Domain is the requested destination domain, as the client sent it.
	Domain string `json:"domain"`

	// Session is the requesting session's identifier.
	Session string `json:"session"`
}

// pendingRequest is the manager's internal record of an in-flight
// approval. The responder fires at most once: whichever of Resolve or
// Shutdown removes the entry from the pending table owns the channel.
type pendingRequest struct {
	responder chan Decision
	domain    string
	session   string
}

// Manager holds the static and session allowlists and arbitrates
// pending approval requests. All methods are safe for concurrent use.
//
// The config allowlist is immutable after construction. The session
// allowlist and the pending table share one reader/writer lock: checks
// and approvals are not latency-sensitive relative to the network I/O
// around them, so a single lock favoring correctness is the right
// trade.
type Manager struct {
	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	configAllowlist []Pattern
	timeout         time.Duration
	clock           clock.Clock

	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
	pending  map[string]*pendingRequest
}

// NewManager builds a Manager. allowedDomains are pattern strings in
// configured order ("github.com", "*.golang.org", "*"); approvalTimeout
// bounds every WaitForDecision call.
func NewManager(allowedDomains []string, approvalTimeout time.Duration, clk clock.Clock) *Manager {
	configAllowlist := make([]Pattern, 0, len(allowedDomains))
	for _, raw := range allowedDomains {
		configAllowlist = append(configAllowlist, ParsePattern(raw))
	}
	return &Manager{
		configAllowlist: configAllowlist,
		timeout:         approvalTimeout,
		clock:           clk,
		sessions:        make(map[string]map[string]struct{}),
		pending:         make(map[string]*pendingRequest),
	}
}

// logger returns the configured logger or the default.
func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Check matches domain against the config allowlist (in configured
// order, first match wins) and then the session's approved domains.
// It never mutates state and may be called repeatedly and
// concurrently.
func (m *Manager) Check(session, domain string) Action {
	for _, pattern := range m.configAllowlist {
		if pattern.Matches(domain) {
			return Allow
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if domains, ok := m.sessions[session]; ok {
		if _, trusted := domains[strings.ToLower(domain)]; trusted {
			return Allow
		}
	}
	return NeedsApproval
}

// CreateRequest registers a pending approval request and returns its
// id plus the receiving half of the one-shot responder. Multiple
// requests for the same (session, domain) pair coexist as independent
// entries; the manager does not deduplicate.
func (m *Manager) CreateRequest(session, domain string) (string, <-chan Decision) {
	id := uuid.NewString()
	responder := make(chan Decision, 1)

	m.mu.Lock()
	m.pending[id] = &pendingRequest{
		responder: responder,
		domain:    domain,
		session:   session,
	}
	m.mu.Unlock()

	m.logger().Debug("domain approval request created",
		"id", id,
		"session", session,
		"domain", domain,
	)
	return id, responder
}

// Resolve removes the pending request for id and fires its responder
// with decision. On Approved, the request's domain (lowercased) is
// added to its session's allowlist first, so the mutation is visible
// to any Check that runs after the waiter wakes.
//
// Resolving an unknown id logs a warning and does nothing else: a
// tardy approver racing a timed-out waiter is an expected, harmless
// interleaving, not an error.
func (m *Manager) Resolve(id string, decision Decision) {
	m.mu.Lock()
	request, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		m.logger().Warn("domain approval resolve: no pending request", "id", id)
		return
	}
	delete(m.pending, id)
	if decision == Approved {
		domains, ok := m.sessions[request.session]
		if !ok {
			domains = make(map[string]struct{})
			m.sessions[request.session] = domains
		}
		domains[strings.ToLower(request.domain)] = struct{}{}
	}
	m.mu.Unlock()

	// Buffered with capacity 1 and this goroutine is the sole owner
	// (the entry was removed under the lock), so the send cannot block.
	request.responder <- decision

	m.logger().Debug("domain approval resolved",
		"id", id,
		"session", request.session,
		"domain", request.domain,
		"decision", decision,
	)
}

// WaitForDecision blocks until the responder fires, the responder is
// abandoned, or the approval timeout elapses, whichever comes first.
// An abandoned responder (closed without a value) reads as Denied.
//
// WaitForDecision does not remove the pending entry — Resolve is
// solely responsible for that. A request whose waiter timed out can
// therefore still be resolved later; the late Resolve fires an
// already-abandoned responder, which is harmless.
func (m *Manager) WaitForDecision(receiver <-chan Decision) Decision {
	select {
	case decision, ok := <-receiver:
		if !ok {
			m.logger().Warn("domain approval channel closed")
			return Denied
		}
		return decision
	case <-m.clock.After(m.timeout):
		m.logger().Warn("domain approval timed out")
		return Timeout
	}
}

// PendingRequests returns a snapshot of all outstanding approval
// requests, in no particular order.
func (m *Manager) PendingRequests() []PendingRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]PendingRequest, 0, len(m.pending))
	for id, request := range m.pending {
		snapshot = append(snapshot, PendingRequest{
			ID:      id,
			Domain:  request.domain,
			Session: request.session,
		})
	}
	return snapshot
}

// AddTrustedDomain adds domain (lowercased) to the session's
// allowlist without going through the approval flow. Used for
// pre-seeding trust.
func (m *Manager) AddTrustedDomain(session, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	domains, ok := m.sessions[session]
	if !ok {
		domains = make(map[string]struct{})
		m.sessions[session] = domains
	}
	domains[strings.ToLower(domain)] = struct{}{}
}

// RemoveTrustedDomain removes domain from the session's allowlist.
// Removing a domain that was never trusted is a no-op.
func (m *Manager) RemoveTrustedDomain(session, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if domains, ok := m.sessions[session]; ok {
		delete(domains, strings.ToLower(domain))
	}
}

// ListTrustedDomains returns the config patterns (rendered back to
// their string form, in configured order) followed by the session's
// dynamically approved domains in sorted order, with exact string
// duplicates removed.
func (m *Manager) ListTrustedDomains(session string) []string {
	trusted := make([]string, 0, len(m.configAllowlist))
	for _, pattern := range m.configAllowlist {
		trusted = append(trusted, pattern.String())
	}

	m.mu.RLock()
	sessionDomains := make([]string, 0, len(m.sessions[session]))
	for domain := range m.sessions[session] {
		sessionDomains = append(sessionDomains, domain)
	}
	m.mu.RUnlock()

	sort.Strings(sessionDomains)
	for _, domain := range sessionDomains {
		if !slices.Contains(trusted, domain) {
			trusted = append(trusted, domain)
		}
	}
	return trusted
}

// SessionCount returns the number of sessions holding at least one
// dynamically approved domain.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, domains := range m.sessions {
		if len(domains) > 0 {
			count++
		}
	}
	return count
}

// Timeout returns the configured approval timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// ConfigPatterns returns the config allowlist rendered back to pattern
// strings, in configured order.
func (m *Manager) ConfigPatterns() []string {
	rendered := make([]string, 0, len(m.configAllowlist))
	for _, pattern := range m.configAllowlist {
		rendered = append(rendered, pattern.String())
	}
	return rendered
}

// Shutdown retires every outstanding pending request by closing its
// responder without sending a decision; blocked waiters observe the
// closed channel and treat it as Denied. The allowlists are left
// intact and the manager remains usable.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	retired := m.pending
	m.pending = make(map[string]*pendingRequest)
	m.mu.Unlock()

	for _, request := range retired {
		close(request.responder)
	}
	if len(retired) > 0 {
		m.logger().Info("retired pending domain approvals", "count", len(retired))
	}
}

// Compile-time interface check.
var _ Filter = (*Manager)(nil)
