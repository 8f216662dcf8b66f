// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/egress/cmd/egress/cli"
	"github.com/bureau-foundation/egress/control"
)

func pendingCommand() *cli.Command {
	var connection controlConnection
	var outputJSON bool

	return &cli.Command{
		Name:    "pending",
		Summary: "List pending approval requests",
		Description: `List domain approval requests that connections are currently
waiting on. Each entry shows the request id, the destination domain,
and the requesting session. Resolve entries with "egress approve" or
"egress deny" before the proxy's approval timeout expires.`,
		Usage: "egress pending [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pending", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "List waiting requests",
				Command:     "egress pending",
			},
			{
				Description: "Machine-readable output for scripting",
				Command:     "egress pending --json",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			ctx, cancel := callContext(ctx)
			defer cancel()

			var reply control.PendingReply
			if err := connection.client().Call(ctx, "pending", nil, &reply); err != nil {
				return err
			}

			if outputJSON {
				return cli.WriteJSON(reply.Requests)
			}

			if len(reply.Requests) == 0 {
				logger.Info("no pending approval requests")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "ID\tDOMAIN\tSESSION\n")
			for _, request := range reply.Requests {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", request.ID, request.Domain, request.Session)
			}
			return writer.Flush()
		},
	}
}
