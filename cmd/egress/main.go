// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/egress/cmd/egress/cli"
	"github.com/bureau-foundation/egress/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError
		// with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCommand().Execute(ctx, os.Args[1:], cli.NewCommandLogger())
}

// rootCommand builds the egress CLI command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "egress",
		Description: `Egress: operator CLI for the egress proxy.

Approve or deny outbound domains that sandboxed code is waiting on,
manage per-session trusted domains, and inspect proxy status, all over
the daemon's control socket.`,
		Subcommands: []*cli.Command{
			pendingCommand(),
			approveCommand(),
			denyCommand(),
			trustCommand(),
			revokeCommand(),
			trustedCommand(),
			statusCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("egress %s\n", version.Info())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "See which domains are waiting for a decision",
				Command:     "egress pending",
			},
			{
				Description: "Approve a pending request",
				Command:     "egress approve 6f7c1a2e-8d3b-4f5a-9c0d-1e2f3a4b5c6d",
			},
			{
				Description: "Pre-trust a domain for a session",
				Command:     "egress trust 127.0.0.1:49152 pypi.org",
			},
			{
				Description: "Check proxy status as JSON",
				Command:     "egress status --json",
			},
		},
	}
}
