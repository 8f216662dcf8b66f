// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/bureau-foundation/egress/lib/netutil"
	"github.com/bureau-foundation/egress/policy"
)

// handleClient reads the request line and dispatches to the CONNECT
// tunnel or forward-proxy path. Errors returned here are protocol or
// I/O failures on this one connection; the caller logs them at Debug
// and moves on.
func (s *Server) handleClient(connection net.Conn) error {
	defer connection.Close()

	// The peer address doubles as the session identifier: inside the
	// sandbox each client process owns its source port for the life of
	// the connection, and approvals are meant to stick to whoever is
	// dialing out, not to the whole machine.
	session := connection.RemoteAddr().String()

	reader := bufio.NewReader(connection)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read request line: %w", err)
	}

	requestLine := strings.TrimSpace(line)
	if requestLine == "" {
		return fmt.Errorf("empty request")
	}
	parts := strings.Fields(requestLine)
	if len(parts) < 2 {
		return fmt.Errorf("malformed request line: %s", requestLine)
	}
	method, target := parts[0], parts[1]

	if strings.EqualFold(method, "CONNECT") {
		return s.handleConnect(reader, connection, session, target)
	}
	return s.handleForward(reader, connection, session, method, target)
}

// handleConnect serves a CONNECT tunnel: consume the request headers,
// run the policy gate, dial the target, answer 200, and relay bytes
// until both sides are done.
func (s *Server) handleConnect(reader *bufio.Reader, connection net.Conn, session, target string) error {
	domain, port := splitConnectTarget(target)

	// Discard the remaining request headers through the blank line.
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read headers: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !s.authorize(session, domain, "waiting for domain approval") {
		if _, err := io.WriteString(connection, tunnelForbiddenResponse); err != nil {
			return fmt.Errorf("write 403: %w", err)
		}
		return nil
	}

	upstream, err := s.dialUpstream(domain, port)
	if err != nil {
		s.stats.upstreamFailures.Add(1)
		if _, writeErr := io.WriteString(connection, badGatewayResponse+err.Error()); writeErr != nil {
			return fmt.Errorf("write 502: %w", writeErr)
		}
		return nil
	}
	defer upstream.Close()

	if _, err := io.WriteString(connection, establishedResponse); err != nil {
		return fmt.Errorf("write 200: %w", err)
	}

	s.relay(connection, reader, upstream)
	return nil
}

// handleForward serves an absolute-URL request (HTTP_PROXY style): run
// the policy gate, capture the headers verbatim, dial the origin,
// replay the request in origin form, and relay the rest of the
// conversation.
func (s *Server) handleForward(reader *bufio.Reader, connection net.Conn, session, method, target string) error {
	domain := hostFromURL(target)
	port := portFromURL(target)

	// The policy gate runs before the headers are consumed: a denied
	// client gets its 403 immediately, with the unread request left on
	// the socket.
	if !s.authorize(session, domain, "waiting for domain approval (HTTP)") {
		if _, err := io.WriteString(connection, forwardForbiddenResponse); err != nil {
			return fmt.Errorf("write 403: %w", err)
		}
		return nil
	}

	// Capture the remaining headers byte for byte. Lines keep their
	// original endings so the upstream sees exactly what the client
	// sent.
	var headers strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read headers: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		headers.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
	}

	upstream, err := s.dialUpstream(domain, port)
	if err != nil {
		s.stats.upstreamFailures.Add(1)
		if _, writeErr := io.WriteString(connection, badGatewayResponse+err.Error()); writeErr != nil {
			return fmt.Errorf("write 502: %w", writeErr)
		}
		return nil
	}
	defer upstream.Close()

	// Rewrite the absolute URL to origin form for the upstream.
	requestLine := fmt.Sprintf("%s %s HTTP/1.1\r\n", method, pathFromURL(target))
	if _, err := io.WriteString(upstream, requestLine); err != nil {
		return fmt.Errorf("write upstream request line: %w", err)
	}
	if _, err := io.WriteString(upstream, headers.String()); err != nil {
		return fmt.Errorf("write upstream headers: %w", err)
	}
	if _, err := io.WriteString(upstream, "\r\n"); err != nil {
		return fmt.Errorf("write upstream header terminator: %w", err)
	}

	s.relay(connection, reader, upstream)
	return nil
}

// authorize runs the policy gate for one connection, updating the
// request counters. It returns true when the connection may proceed
// to the upstream dial.
func (s *Server) authorize(session, domain, waitMessage string) bool {
	switch s.Approvals.Check(session, domain) {
	case policy.Allow:
		s.stats.requestsAllowed.Add(1)
		return true
	case policy.NeedsApproval:
		id, receiver := s.Approvals.CreateRequest(session, domain)
		s.logger().Debug(waitMessage, "id", id, "domain", domain)
		if s.Approvals.WaitForDecision(receiver) == policy.Approved {
			s.stats.requestsApproved.Add(1)
			return true
		}
	case policy.Deny:
	}
	s.stats.requestsDenied.Add(1)
	return false
}

// dialUpstream opens the TCP connection to the destination.
func (s *Server) dialUpstream(domain string, port int) (net.Conn, error) {
	timeout := s.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	return net.DialTimeout("tcp", fmt.Sprintf("%s:%d", domain, port), timeout)
}

// relay bridges the two sockets until both directions finish, feeding
// the byte counters. The buffered reader is the client-side read
// source so request bytes the client pipelined behind its headers are
// not lost.
func (s *Server) relay(client net.Conn, clientReader io.Reader, upstream net.Conn) {
	clientToUpstream, upstreamToClient := netutil.Relay(client, clientReader, upstream, s.logger())
	s.stats.bytesClientToUpstream.Add(uint64(clientToUpstream))
	s.stats.bytesUpstreamToClient.Add(uint64(upstreamToClient))
}
