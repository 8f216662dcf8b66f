// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/egress/cmd/egress/cli"
)

func approveCommand() *cli.Command {
	return resolveCommand("approve", "approved",
		"Approve a pending request",
		`Approve a pending domain approval request by id. The waiting
connection proceeds to the destination, and the domain is added to the
requesting session's allowlist so later connections from that session
skip approval.`)
}

func denyCommand() *cli.Command {
	return resolveCommand("deny", "denied",
		"Deny a pending request",
		`Deny a pending domain approval request by id. The waiting
connection receives 403 Forbidden. The session's allowlist is not
changed; the same domain will ask again on its next attempt.`)
}

// resolveCommand builds the shared approve/deny command shape. Both
// send the "resolve" action; only the decision differs.
func resolveCommand(name, decision, summary, description string) *cli.Command {
	var connection controlConnection

	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("egress %s <id> [flags]", name),
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Resolve a request listed by 'egress pending'",
				Command:     fmt.Sprintf("egress %s 6f7c1a2e-8d3b-4f5a-9c0d-1e2f3a4b5c6d", name),
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one request id, got %d arguments", len(args))
			}
			id := args[0]

			ctx, cancel := callContext(ctx)
			defer cancel()

			fields := map[string]any{
				"id":       id,
				"decision": decision,
			}
			if err := connection.client().Call(ctx, "resolve", fields, nil); err != nil {
				return err
			}

			logger.Info("request resolved", "id", id, "decision", decision)
			return nil
		},
	}
}
