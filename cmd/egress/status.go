// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/egress/cmd/egress/cli"
	"github.com/bureau-foundation/egress/control"
)

func statusCommand() *cli.Command {
	var connection controlConnection
	var outputJSON bool

	return &cli.Command{
		Name:    "status",
		Summary: "Show proxy status",
		Description: `Show the running daemon's listen address, policy state (pending
requests, sessions with grants, allowlist fingerprint), and traffic
counters.

The allowlist fingerprint is a digest of the configured patterns: two
daemons showing the same fingerprint enforce the same static policy.`,
		Usage: "egress status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Human-readable status",
				Command:     "egress status",
			},
			{
				Description: "Status for scripting",
				Command:     "egress status --json",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			ctx, cancel := callContext(ctx)
			defer cancel()

			var reply control.StatusReply
			if err := connection.client().Call(ctx, "status", nil, &reply); err != nil {
				return err
			}

			if outputJSON {
				return cli.WriteJSON(reply)
			}

			uptime := time.Duration(reply.UptimeSeconds * float64(time.Second)).Round(time.Second)

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "listen address\t%s\n", reply.ListenAddress)
			fmt.Fprintf(writer, "uptime\t%s\n", uptime)
			fmt.Fprintf(writer, "pending requests\t%d\n", reply.Pending)
			fmt.Fprintf(writer, "sessions with grants\t%d\n", reply.Sessions)
			fmt.Fprintf(writer, "allowlist fingerprint\t%s\n", reply.AllowlistFingerprint)
			fmt.Fprintf(writer, "connections total\t%d\n", reply.Stats.ConnectionsTotal)
			fmt.Fprintf(writer, "connections active\t%d\n", reply.Stats.ConnectionsActive)
			fmt.Fprintf(writer, "requests allowed\t%d\n", reply.Stats.RequestsAllowed)
			fmt.Fprintf(writer, "requests approved\t%d\n", reply.Stats.RequestsApproved)
			fmt.Fprintf(writer, "requests denied\t%d\n", reply.Stats.RequestsDenied)
			fmt.Fprintf(writer, "upstream failures\t%d\n", reply.Stats.UpstreamFailures)
			fmt.Fprintf(writer, "bytes client->upstream\t%d\n", reply.Stats.BytesClientToUpstream)
			fmt.Fprintf(writer, "bytes upstream->client\t%d\n", reply.Stats.BytesUpstreamToClient)
			return writer.Flush()
		},
	}
}
