// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/simfetch-project/simfetch/cmd/simfetch/cli"
)

func searchCommand() *cli.Command {
	var connection ServerConnection
	var verbose bool

	return &cli.Command{
		Name:    "search",
		Summary: "List simulations known to the server",
		Usage:   "simfetch search [query] [flags]",
		Description: `Search simulations on the simulation server.

Without a query, all simulations are listed. The query matches
server-side against simulation metadata.`,
		Examples: []cli.Example{
			{
				Description: "List everything",
				Command:     "simfetch search",
			},
			{
				Description: "Match against metadata",
				Command:     "simfetch search ablation",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one query argument, got %d", len(args))
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			ctx := context.Background()
			logger := cli.NewCommandLogger(verbose).With("command", "search")

			client, _, err := connection.dial(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			simulations, err := client.Search(ctx, query)
			if err != nil {
				logger.Error("search failed", "error", err)
				return &cli.ExitError{Code: 1}
			}

			if len(simulations) == 0 {
				fmt.Println("no simulations found")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "GUID\tSTATUS\tPROGRESS\tUPDATED")
			for _, simulation := range simulations {
				updated := "-"
				if !simulation.Updated.IsZero() {
					updated = simulation.Updated.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(writer, "%s\t%s\t%.0f%%\t%s\n",
					simulation.GUID, simulation.Status, simulation.Progress*100, updated)
			}
			return writer.Flush()
		},
	}
}
