// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// closeWriter is the half-close capability of TCP and Unix connections.
type closeWriter interface {
	CloseWrite() error
}

// Relay copies bytes bidirectionally between a client connection and an
// upstream connection until both directions are done. The client side
// is read through clientReader rather than the connection itself, so
// bytes the client pipelined behind an already-parsed request (sitting
// in a bufio.Reader) are not lost.
//
// Each direction runs independently: when one direction reaches EOF,
// the EOF is propagated to the opposite peer with CloseWrite and the
// other direction keeps relaying until it finishes on its own. Copy
// errors other than normal connection teardown are logged at Debug
// level on logger.
//
// Returns the number of bytes copied client->upstream and
// upstream->client.
func Relay(client net.Conn, clientReader io.Reader, upstream net.Conn, logger *slog.Logger) (clientToUpstream, upstreamToClient int64) {
	if logger == nil {
		logger = slog.Default()
	}

	var toUpstream, toClient atomic.Int64
	var waitGroup sync.WaitGroup
	waitGroup.Add(2)

	// Client -> upstream.
	go func() {
		defer waitGroup.Done()
		bytesCopied, copyError := io.Copy(upstream, clientReader)
		toUpstream.Store(bytesCopied)
		if copyError != nil && !IsExpectedCloseError(copyError) {
			logger.Debug("client->upstream copy ended",
				"bytes_copied", bytesCopied,
				"error", copyError,
			)
		}
		if halfCloser, ok := upstream.(closeWriter); ok {
			halfCloser.CloseWrite()
		}
	}()

	// Upstream -> client.
	go func() {
		defer waitGroup.Done()
		bytesCopied, copyError := io.Copy(client, upstream)
		toClient.Store(bytesCopied)
		if copyError != nil && !IsExpectedCloseError(copyError) {
			logger.Debug("upstream->client copy ended",
				"bytes_copied", bytesCopied,
				"error", copyError,
			)
		}
		if halfCloser, ok := client.(closeWriter); ok {
			halfCloser.CloseWrite()
		}
	}()

	waitGroup.Wait()
	return toUpstream.Load(), toClient.Load()
}
