// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/egress/cmd/egress/cli"
	"github.com/bureau-foundation/egress/control"
)

func trustCommand() *cli.Command {
	var connection controlConnection

	return &cli.Command{
		Name:    "trust",
		Summary: "Add a trusted domain for a session",
		Description: `Add a domain to a session's allowlist directly, without waiting
for a connection to ask. The session identifier is the client's
socket address as the proxy sees it ("egress pending" and the proxy
logs both show it).

The domain is matched exactly after lowercasing; wildcard patterns
belong in the daemon's static configuration, not in session grants.`,
		Usage: "egress trust <session> <domain> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("trust", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Pre-trust a registry for a session",
				Command:     "egress trust 127.0.0.1:49152 pypi.org",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			session, domain, err := sessionDomainArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := callContext(ctx)
			defer cancel()

			fields := map[string]any{
				"session": session,
				"domain":  domain,
			}
			if err := connection.client().Call(ctx, "trust", fields, nil); err != nil {
				return err
			}

			logger.Info("domain trusted", "session", session, "domain", domain)
			return nil
		},
	}
}

func revokeCommand() *cli.Command {
	var connection controlConnection

	return &cli.Command{
		Name:    "revoke",
		Summary: "Remove a trusted domain from a session",
		Description: `Remove a previously approved or trusted domain from a session's
allowlist. The session's next connection to that domain goes through
approval again. Domains in the daemon's static configuration cannot be
revoked per session.`,
		Usage: "egress revoke <session> <domain> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("revoke", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Withdraw a session's access to a domain",
				Command:     "egress revoke 127.0.0.1:49152 pypi.org",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			session, domain, err := sessionDomainArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := callContext(ctx)
			defer cancel()

			fields := map[string]any{
				"session": session,
				"domain":  domain,
			}
			if err := connection.client().Call(ctx, "revoke", fields, nil); err != nil {
				return err
			}

			logger.Info("domain revoked", "session", session, "domain", domain)
			return nil
		},
	}
}

func trustedCommand() *cli.Command {
	var connection controlConnection
	var outputJSON bool

	return &cli.Command{
		Name:    "trusted",
		Summary: "List a session's reachable domains",
		Description: `List everything a session may currently reach: the daemon's
static allowlist patterns (in configured order) followed by the
session's dynamically approved domains.`,
		Usage: "egress trusted <session> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("trusted", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show a session's effective allowlist",
				Command:     "egress trusted 127.0.0.1:49152",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one session identifier, got %d arguments", len(args))
			}
			session := args[0]

			ctx, cancel := callContext(ctx)
			defer cancel()

			var reply control.TrustedReply
			fields := map[string]any{"session": session}
			if err := connection.client().Call(ctx, "trusted", fields, &reply); err != nil {
				return err
			}

			if outputJSON {
				return cli.WriteJSON(reply.Domains)
			}

			for _, domain := range reply.Domains {
				fmt.Println(domain)
			}
			return nil
		},
	}
}

// sessionDomainArgs validates the shared <session> <domain> argument
// shape of trust and revoke.
func sessionDomainArgs(args []string) (session, domain string, err error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("expected <session> <domain>, got %d arguments", len(args))
	}
	return args[0], args[1], nil
}
