// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/egress/policy"
)

const defaultDialTimeout = 10 * time.Second

// Server is the egress proxy: it accepts client connections, applies
// the domain policy, and tunnels approved traffic to the destination.
type Server struct {
	// ListenAddress is the TCP address to listen on
	// (e.g. "127.0.0.1:18791"). Use port 0 in tests and read the
	// bound address back with Addr.
	ListenAddress string

	// Approvals arbitrates which domains each session may reach.
	Approvals *policy.Manager

	// DialTimeout bounds upstream TCP connects. Zero means 10s.
	DialTimeout time.Duration

	// MaxConnections caps concurrently handled client connections.
	// Zero means unlimited. When the cap is reached, further accepts
	// wait for a handler to finish before spawning.
	MaxConnections int

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-connection errors are logged at Debug level;
	// accept errors at Warn; lifecycle events at Info.
	Logger *slog.Logger

	listener  net.Listener
	cancel    context.CancelFunc
	done      chan struct{}
	admission chan struct{}
	stats     Stats
}

// logger returns the configured logger or the default.
func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound, or an error if
// binding fails. The server runs until Stop is called or the context
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.ListenAddress == "" {
		return fmt.Errorf("proxy: ListenAddress is required")
	}
	if s.Approvals == nil {
		return fmt.Errorf("proxy: Approvals is required")
	}

	listener, err := net.Listen("tcp", s.ListenAddress)
	if err != nil {
		return fmt.Errorf("proxy: listen on %s: %w", s.ListenAddress, err)
	}
	s.listener = listener

	if s.MaxConnections > 0 {
		s.admission = make(chan struct{}, s.MaxConnections)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.acceptLoop(ctx)
	}()

	s.logger().Info("network proxy listening", "address", listener.Addr())
	return nil
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the server has not been started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and stops accepting new connections.
// In-flight tunnels are not cancelled: established transfers run to
// completion on their own goroutines.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if s.done != nil {
		<-s.done
	}
}

// Wait blocks until the accept loop has exited.
func (s *Server) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// Stats exposes the server's counters for the control socket.
func (s *Server) Stats() *Stats {
	return &s.stats
}

// acceptLoop accepts connections and spawns a handler goroutine per
// connection. Handlers are deliberately not tracked: shutting down the
// proxy must never sever tunnels that are mid-transfer.
func (s *Server) acceptLoop(ctx context.Context) {
	for {
		connection, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.logger().Info("network proxy shutting down")
				return
			default:
				s.logger().Warn("proxy accept error", "error", err)
				continue
			}
		}

		if s.admission != nil {
			select {
			case s.admission <- struct{}{}:
			case <-ctx.Done():
				connection.Close()
				s.logger().Info("network proxy shutting down")
				return
			}
		}

		s.stats.connectionsTotal.Add(1)
		s.stats.connectionsActive.Add(1)
		go func() {
			defer func() {
				s.stats.connectionsActive.Add(-1)
				if s.admission != nil {
					<-s.admission
				}
			}()
			if err := s.handleClient(connection); err != nil {
				s.logger().Debug("proxy client error",
					"peer", connection.RemoteAddr(),
					"error", err,
				)
			}
		}()
	}
}
