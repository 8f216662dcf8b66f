// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/egress/control"
	"github.com/bureau-foundation/egress/proxy"
)

// controlSocketEnvVar overrides the default control socket path,
// letting wrappers point the CLI at a specific daemon without
// repeating --socket on every command.
const controlSocketEnvVar = "EGRESS_CONTROL_SOCKET"

// controlConnection holds the connection parameters shared by every
// command that talks to the daemon.
type controlConnection struct {
	SocketPath string
}

// AddFlags registers the --socket flag. The default resolves in
// order: $EGRESS_CONTROL_SOCKET, then the compiled-in path.
func (c *controlConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.SocketPath, "socket", defaultSocketPath(), "control socket path")
}

// client creates a control client for the configured socket.
func (c *controlConnection) client() *control.Client {
	return control.NewClient(c.SocketPath)
}

func defaultSocketPath() string {
	if path := os.Getenv(controlSocketEnvVar); path != "" {
		return path
	}
	return proxy.DefaultControlSocket
}

// callContext returns a context with a timeout for control calls
// derived from the provided parent. Control actions complete in
// microseconds on the daemon side; the timeout only bounds a hung or
// unreachable socket.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
