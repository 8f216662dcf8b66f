// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// tcpPair returns the two ends of a loopback TCP connection. Both ends
// are closed when the test completes.
func tcpPair(t *testing.T) (dialedEnd, acceptedEnd net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, acceptError := listener.Accept()
		accepted <- acceptResult{conn, acceptError}
	}()

	dialedEnd, err = net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	result := <-accepted
	if result.err != nil {
		t.Fatalf("accept: %v", result.err)
	}
	t.Cleanup(func() {
		dialedEnd.Close()
		result.conn.Close()
	})
	return dialedEnd, result.conn
}

type relayResult struct {
	clientToUpstream int64
	upstreamToClient int64
}

func TestRelayEchoRoundTrip(t *testing.T) {
	testEnd, clientEnd := tcpPair(t)
	upstreamEnd, echoEnd := tcpPair(t)

	// Echo peer: write back everything read, then half-close.
	go func() {
		io.Copy(echoEnd, echoEnd)
		echoEnd.(*net.TCPConn).CloseWrite()
	}()

	done := make(chan relayResult, 1)
	go func() {
		clientToUpstream, upstreamToClient := Relay(clientEnd, clientEnd, upstreamEnd, nil)
		done <- relayResult{clientToUpstream, upstreamToClient}
	}()

	payload := []byte("hello, relay")
	if _, err := testEnd.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	testEnd.(*net.TCPConn).CloseWrite()

	response, err := io.ReadAll(testEnd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(payload, response) {
		t.Fatalf("expected %q, got %q", payload, response)
	}

	select {
	case result := <-done:
		if result.clientToUpstream != int64(len(payload)) {
			t.Fatalf("clientToUpstream = %d, want %d", result.clientToUpstream, len(payload))
		}
		if result.upstreamToClient != int64(len(payload)) {
			t.Fatalf("upstreamToClient = %d, want %d", result.upstreamToClient, len(payload))
		}
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Relay did not return after both directions closed")
	}
}

// TestRelayDrainsReader verifies that bytes already consumed into a
// wrapping reader (a bufio.Reader in the proxy) reach the upstream
// ahead of bytes still in the socket.
func TestRelayDrainsReader(t *testing.T) {
	testEnd, clientEnd := tcpPair(t)
	upstreamEnd, captureEnd := tcpPair(t)

	captured := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(captureEnd)
		captured <- data
		captureEnd.(*net.TCPConn).CloseWrite()
	}()

	// Simulate a reader holding buffered bytes from a parsed request.
	clientReader := io.MultiReader(strings.NewReader("buffered:"), clientEnd)

	done := make(chan relayResult, 1)
	go func() {
		clientToUpstream, upstreamToClient := Relay(clientEnd, clientReader, upstreamEnd, nil)
		done <- relayResult{clientToUpstream, upstreamToClient}
	}()

	if _, err := testEnd.Write([]byte("socket-data")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	testEnd.(*net.TCPConn).CloseWrite()

	expected := []byte("buffered:socket-data")
	if got := <-captured; !bytes.Equal(expected, got) {
		t.Fatalf("upstream received %q, want %q", got, expected)
	}

	// Drain the client side so the reverse direction can finish.
	io.ReadAll(testEnd)

	select {
	case result := <-done:
		if result.clientToUpstream != int64(len(expected)) {
			t.Fatalf("clientToUpstream = %d, want %d", result.clientToUpstream, len(expected))
		}
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Relay did not return")
	}
}

// TestRelayDirectionsIndependent verifies that the upstream finishing
// its write side does not tear down the client->upstream direction: the
// client can keep sending until it closes on its own.
func TestRelayDirectionsIndependent(t *testing.T) {
	testEnd, clientEnd := tcpPair(t)
	upstreamEnd, peerEnd := tcpPair(t)

	received := make(chan []byte, 1)
	go func() {
		// Announce first, half-close the write side immediately, then
		// keep reading what the client sends.
		peerEnd.Write([]byte("banner"))
		peerEnd.(*net.TCPConn).CloseWrite()
		data, _ := io.ReadAll(peerEnd)
		received <- data
	}()

	done := make(chan relayResult, 1)
	go func() {
		clientToUpstream, upstreamToClient := Relay(clientEnd, clientEnd, upstreamEnd, nil)
		done <- relayResult{clientToUpstream, upstreamToClient}
	}()

	// The banner arrives even though nothing was sent yet.
	banner := make([]byte, 6)
	if _, err := io.ReadFull(testEnd, banner); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(banner) != "banner" {
		t.Fatalf("banner = %q, want %q", banner, "banner")
	}

	// The client->upstream direction still works after the reverse
	// direction completed.
	if _, err := testEnd.Write([]byte("late-data")); err != nil {
		t.Fatalf("Write after upstream close: %v", err)
	}
	testEnd.(*net.TCPConn).CloseWrite()

	if got := <-received; string(got) != "late-data" {
		t.Fatalf("upstream received %q, want %q", got, "late-data")
	}

	select {
	case result := <-done:
		if result.upstreamToClient != int64(len(banner)) {
			t.Fatalf("upstreamToClient = %d, want %d", result.upstreamToClient, len(banner))
		}
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Relay did not return")
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	if IsExpectedCloseError(nil) {
		t.Fatal("nil should not be an expected close error")
	}
	if !IsExpectedCloseError(io.EOF) {
		t.Fatal("io.EOF should be an expected close error")
	}
	if !IsExpectedCloseError(net.ErrClosed) {
		t.Fatal("net.ErrClosed should be an expected close error")
	}
	if IsExpectedCloseError(io.ErrUnexpectedEOF) {
		t.Fatal("io.ErrUnexpectedEOF should not be an expected close error")
	}
}
