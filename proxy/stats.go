// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"sync/atomic"
)

// Stats accumulates proxy counters. All fields are atomics; the struct
// is shared between connection handlers and the control socket's
// status report without locking.
type Stats struct {
	connectionsTotal  atomic.Uint64
	connectionsActive atomic.Int64

	requestsAllowed  atomic.Uint64
	requestsApproved atomic.Uint64
	requestsDenied   atomic.Uint64

	upstreamFailures atomic.Uint64

	bytesClientToUpstream atomic.Uint64
	bytesUpstreamToClient atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the counters, shaped for
// the control socket's status reply.
type StatsSnapshot struct {
	// ConnectionsTotal counts every accepted client connection.
	ConnectionsTotal uint64 `json:"connections_total"`

	// ConnectionsActive is the number of handlers currently running.
	ConnectionsActive int64 `json:"connections_active"`

	// RequestsAllowed counts connections admitted by the static
	// allowlist or a previously approved session domain.
	RequestsAllowed uint64 `json:"requests_allowed"`

	// RequestsApproved counts connections admitted by a human
	// decision while the connection waited.
	RequestsApproved uint64 `json:"requests_approved"`

	// RequestsDenied counts connections refused with 403, whether
	// denied outright, denied while waiting, or timed out.
	RequestsDenied uint64 `json:"requests_denied"`

	// UpstreamFailures counts upstream dials that failed (502s).
	UpstreamFailures uint64 `json:"upstream_failures"`

	// BytesClientToUpstream and BytesUpstreamToClient count relayed
	// tunnel payload per direction.
	BytesClientToUpstream uint64 `json:"bytes_client_to_upstream"`
	BytesUpstreamToClient uint64 `json:"bytes_upstream_to_client"`
}

// Snapshot returns a copy of the current counter values. The counters
// are read individually, so the snapshot is not a single atomic cut
// across all of them; for operator reporting that is fine.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ConnectionsTotal:      s.connectionsTotal.Load(),
		ConnectionsActive:     s.connectionsActive.Load(),
		RequestsAllowed:       s.requestsAllowed.Load(),
		RequestsApproved:      s.requestsApproved.Load(),
		RequestsDenied:        s.requestsDenied.Load(),
		UpstreamFailures:      s.upstreamFailures.Load(),
		BytesClientToUpstream: s.bytesClientToUpstream.Load(),
		BytesUpstreamToClient: s.bytesUpstreamToClient.Load(),
	}
}
