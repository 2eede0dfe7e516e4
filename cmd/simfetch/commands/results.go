// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/simfetch-project/simfetch/cmd/simfetch/cli"
	"github.com/simfetch-project/simfetch/lib/remote"
	"github.com/simfetch-project/simfetch/lib/retrieve"
)

func resultsCommand() *cli.Command {
	var connection ServerConnection
	var output string
	var verbose bool

	return &cli.Command{
		Name:    "results",
		Summary: "Retrieve the result bundle for a simulation",
		Usage:   "simfetch results <guid> [flags]",
		Description: `Ask the simulation server to push the result bundle for a
simulation and receive it over a transient upload endpoint.

If the simulation produced no results, the command reports that and
exits nonzero without writing anything.`,
		Examples: []cli.Example{
			{
				Description: "Download results to <guid>-results.tgz",
				Command:     "simfetch results 0f8fad5b-d9cb-469f-a165-70867728950e",
			},
			{
				Description: "Download to an explicit path",
				Command:     "simfetch results 0f8fad5b-d9cb-469f-a165-70867728950e --output run42.tgz",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("results", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVarP(&output, "output", "o", "", "path to write the bundle to (default <guid>-results.tgz)")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one simulation GUID argument, got %d", len(args))
			}
			guid := args[0]
			if _, err := uuid.Parse(guid); err != nil {
				return fmt.Errorf("invalid simulation GUID %q: %w", guid, err)
			}
			if output == "" {
				output = guid + "-results.tgz"
			}

			ctx := context.Background()
			logger := cli.NewCommandLogger(verbose).With("command", "results")

			client, cfg, err := connection.dial(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			retriever := &retrieve.Retriever{
				Actions: client,
				Host:    cfg.Upload.Host,
				Port:    cfg.Upload.Port,
				Logger:  logger,
			}
			path, err := retriever.Results(ctx, guid, output)
			if err != nil {
				var actionErr *remote.ActionError
				if errors.As(err, &actionErr) || errors.Is(err, retrieve.ErrNothingProduced) {
					logger.Error("result retrieval failed", "guid", guid, "error", err)
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			fmt.Println(path)
			return nil
		},
	}
}
