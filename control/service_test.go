// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bureau-foundation/egress/lib/clock"
	"github.com/bureau-foundation/egress/policy"
	"github.com/bureau-foundation/egress/proxy"
)

// epoch is the fixed time the fake clock starts at in these tests.
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// serviceEnv is a control service wired to a real approval manager,
// served over a real socket.
type serviceEnv struct {
	client    *Client
	approvals *policy.Manager
	clk       *clock.FakeClock
}

func newServiceEnv(t *testing.T, allowedDomains ...string) *serviceEnv {
	t.Helper()

	clk := clock.Fake(epoch)
	approvals := policy.NewManager(allowedDomains, time.Minute, clk)
	approvals.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	// The proxy server is never started here; status falls back to
	// the configured listen address.
	service := NewService(approvals, &proxy.Server{ListenAddress: "127.0.0.1:18791"}, clk)
	client := startTestServer(t, service.RegisterActions)

	return &serviceEnv{client: client, approvals: approvals, clk: clk}
}

// --- Pending ---

func TestPendingEmpty(t *testing.T) {
	env := newServiceEnv(t)

	var reply PendingReply
	if err := env.client.Call(context.Background(), "pending", nil, &reply); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(reply.Requests) != 0 {
		t.Errorf("got %d pending requests, want 0", len(reply.Requests))
	}
}

func TestPendingSorted(t *testing.T) {
	env := newServiceEnv(t)

	// Created out of order; the reply sorts by domain, then session.
	env.approvals.CreateRequest("session-b", "zulu.example")
	env.approvals.CreateRequest("session-b", "alpha.example")
	env.approvals.CreateRequest("session-a", "alpha.example")

	var reply PendingReply
	if err := env.client.Call(context.Background(), "pending", nil, &reply); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(reply.Requests) != 3 {
		t.Fatalf("got %d pending requests, want 3", len(reply.Requests))
	}

	want := []struct{ domain, session string }{
		{"alpha.example", "session-a"},
		{"alpha.example", "session-b"},
		{"zulu.example", "session-b"},
	}
	for i, request := range reply.Requests {
		if request.Domain != want[i].domain || request.Session != want[i].session {
			t.Errorf("request %d: got %s/%s, want %s/%s",
				i, request.Domain, request.Session, want[i].domain, want[i].session)
		}
		if request.ID == "" {
			t.Errorf("request %d: empty id", i)
		}
	}
}

// --- Resolve ---

func TestResolveApproved(t *testing.T) {
	env := newServiceEnv(t)
	id, receiver := env.approvals.CreateRequest("sess", "api.example.com")

	err := env.client.Call(context.Background(), "resolve", map[string]any{
		"id":       id,
		"decision": "approved",
	}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	// The decision is buffered before Resolve returns, so the receive
	// cannot block.
	if decision := <-receiver; decision != policy.Approved {
		t.Errorf("decision: got %v, want Approved", decision)
	}
	if action := env.approvals.Check("sess", "api.example.com"); action != policy.Allow {
		t.Errorf("Check after approval: got %v, want Allow", action)
	}

	var reply PendingReply
	if err := env.client.Call(context.Background(), "pending", nil, &reply); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(reply.Requests) != 0 {
		t.Errorf("got %d pending requests after resolve, want 0", len(reply.Requests))
	}
}

func TestResolveDenied(t *testing.T) {
	env := newServiceEnv(t)
	id, receiver := env.approvals.CreateRequest("sess", "api.example.com")

	err := env.client.Call(context.Background(), "resolve", map[string]any{
		"id":       id,
		"decision": "denied",
	}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if decision := <-receiver; decision != policy.Denied {
		t.Errorf("decision: got %v, want Denied", decision)
	}
	if action := env.approvals.Check("sess", "api.example.com"); action != policy.NeedsApproval {
		t.Errorf("Check after denial: got %v, want NeedsApproval", action)
	}
}

func TestResolveUnknownID(t *testing.T) {
	env := newServiceEnv(t)

	// Resolving an id that is not pending succeeds: the operator lost
	// a race against a timeout or another operator.
	err := env.client.Call(context.Background(), "resolve", map[string]any{
		"id":       "already-gone",
		"decision": "denied",
	}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestResolveValidation(t *testing.T) {
	env := newServiceEnv(t)

	tests := []struct {
		name    string
		fields  map[string]any
		message string
	}{
		{"missing id", map[string]any{"decision": "approved"}, "missing required field: id"},
		{"missing decision", map[string]any{"id": "abc"}, "missing required field: decision"},
		{"bad decision", map[string]any{"id": "abc", "decision": "maybe"}, `unknown decision "maybe"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := env.client.Call(context.Background(), "resolve", test.fields, nil)
			callErr := requireCallError(t, err)
			if callErr.Message != test.message {
				t.Errorf("message: got %q, want %q", callErr.Message, test.message)
			}
		})
	}
}

// --- Trust ---

func TestTrustRevokeRoundTrip(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	err := env.client.Call(ctx, "trust", map[string]any{
		"session": "sess",
		"domain":  "internal.example",
	}, nil)
	if err != nil {
		t.Fatalf("trust: %v", err)
	}
	if action := env.approvals.Check("sess", "internal.example"); action != policy.Allow {
		t.Errorf("Check after trust: got %v, want Allow", action)
	}

	err = env.client.Call(ctx, "revoke", map[string]any{
		"session": "sess",
		"domain":  "internal.example",
	}, nil)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if action := env.approvals.Check("sess", "internal.example"); action != policy.NeedsApproval {
		t.Errorf("Check after revoke: got %v, want NeedsApproval", action)
	}
}

func TestTrustValidation(t *testing.T) {
	env := newServiceEnv(t)

	tests := []struct {
		name    string
		fields  map[string]any
		message string
	}{
		{"missing session", map[string]any{"domain": "a.example"}, "missing required field: session"},
		{"missing domain", map[string]any{"session": "sess"}, "missing required field: domain"},
	}
	for _, action := range []string{"trust", "revoke"} {
		for _, test := range tests {
			t.Run(action+" "+test.name, func(t *testing.T) {
				err := env.client.Call(context.Background(), action, test.fields, nil)
				callErr := requireCallError(t, err)
				if callErr.Message != test.message {
					t.Errorf("message: got %q, want %q", callErr.Message, test.message)
				}
			})
		}
	}
}

func TestTrustedListsConfigAndSession(t *testing.T) {
	env := newServiceEnv(t, "github.com", "*.golang.org")

	err := env.client.Call(context.Background(), "trust", map[string]any{
		"session": "sess",
		"domain":  "internal.example",
	}, nil)
	if err != nil {
		t.Fatalf("trust: %v", err)
	}

	var reply TrustedReply
	err = env.client.Call(context.Background(), "trusted", map[string]any{
		"session": "sess",
	}, &reply)
	if err != nil {
		t.Fatalf("trusted: %v", err)
	}

	want := []string{"github.com", "*.golang.org", "internal.example"}
	if len(reply.Domains) != len(want) {
		t.Fatalf("domains: got %v, want %v", reply.Domains, want)
	}
	for i := range want {
		if reply.Domains[i] != want[i] {
			t.Errorf("domain %d: got %q, want %q", i, reply.Domains[i], want[i])
		}
	}
}

func TestTrustedMissingSession(t *testing.T) {
	env := newServiceEnv(t)

	err := env.client.Call(context.Background(), "trusted", nil, nil)
	callErr := requireCallError(t, err)
	if callErr.Message != "missing required field: session" {
		t.Errorf("message: got %q", callErr.Message)
	}
}

// --- Status ---

func TestStatusReportsState(t *testing.T) {
	env := newServiceEnv(t, "github.com", "*.golang.org")

	env.approvals.CreateRequest("sess-1", "api.example.com")
	env.approvals.AddTrustedDomain("sess-2", "internal.example")
	env.clk.Advance(90 * time.Second)

	var reply StatusReply
	if err := env.client.Call(context.Background(), "status", nil, &reply); err != nil {
		t.Fatalf("Call: %v", err)
	}

	if reply.ListenAddress != "127.0.0.1:18791" {
		t.Errorf("listen address: got %q", reply.ListenAddress)
	}
	if reply.Pending != 1 {
		t.Errorf("pending: got %d, want 1", reply.Pending)
	}
	if reply.Sessions != 1 {
		t.Errorf("sessions: got %d, want 1", reply.Sessions)
	}
	want := allowlistFingerprint([]string{"github.com", "*.golang.org"})
	if reply.AllowlistFingerprint != want {
		t.Errorf("fingerprint: got %q, want %q", reply.AllowlistFingerprint, want)
	}
	if reply.UptimeSeconds != 90 {
		t.Errorf("uptime: got %v, want 90", reply.UptimeSeconds)
	}
	if reply.Stats.ConnectionsTotal != 0 {
		t.Errorf("connections total: got %d, want 0", reply.Stats.ConnectionsTotal)
	}
}

func TestAllowlistFingerprint(t *testing.T) {
	patterns := []string{"github.com", "*.golang.org"}

	fingerprint := allowlistFingerprint(patterns)
	if len(fingerprint) != 12 {
		t.Fatalf("fingerprint length: got %d, want 12", len(fingerprint))
	}
	if allowlistFingerprint(patterns) != fingerprint {
		t.Error("fingerprint is not deterministic")
	}

	// Order matters: a reordered allowlist is a different policy.
	reordered := allowlistFingerprint([]string{"*.golang.org", "github.com"})
	if reordered == fingerprint {
		t.Error("reordered patterns produced the same fingerprint")
	}

	// The separator keeps adjacent patterns from merging.
	if allowlistFingerprint([]string{"a.example", "b"}) == allowlistFingerprint([]string{"a.example.b"}) {
		t.Error("boundary-shifted patterns produced the same fingerprint")
	}
}
