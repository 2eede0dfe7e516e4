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

func diagnosticCommand() *cli.Command {
	var connection ServerConnection
	var output string
	var inspect bool
	var destination string
	var modeName string
	var force bool
	var verbose bool

	return &cli.Command{
		Name:    "diagnostic",
		Summary: "Retrieve a diagnostic bundle for a simulation",
		Usage:   "simfetch diagnostic <guid> [flags]",
		Description: `Ask the simulation server to collect and push a diagnostic
bundle for a simulation. The server reports what it collected; if the
collection is empty, the command exits nonzero without writing
anything.

With --inspect, the downloaded bundle is extracted in place after the
transfer completes.`,
		Examples: []cli.Example{
			{
				Description: "Download diagnostics to <guid>-diagnostic.tgz",
				Command:     "simfetch diagnostic 0f8fad5b-d9cb-469f-a165-70867728950e",
			},
			{
				Description: "Download and extract a goosefoot simulation",
				Command:     "simfetch diagnostic 0f8fad5b-d9cb-469f-a165-70867728950e --inspect --mode goosefoot",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("diagnostic", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVarP(&output, "output", "o", "", "path to write the bundle to (default <guid>-diagnostic.tgz)")
			flagSet.BoolVar(&inspect, "inspect", false, "extract the bundle after download")
			flagSet.StringVarP(&destination, "destination", "d", "", "directory to extract into with --inspect (default from config, \"simulation\")")
			flagSet.StringVar(&modeName, "mode", "", "simulation family finalize mode (goosefoot)")
			flagSet.BoolVarP(&force, "force", "f", false, "replace the destination directory if it exists")
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
				output = guid + "-diagnostic.tgz"
			}

			ctx := context.Background()
			logger := cli.NewCommandLogger(verbose).With("command", "diagnostic")

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
			path, err := retriever.Diagnostics(ctx, guid, output)
			if err != nil {
				var actionErr *remote.ActionError
				if errors.As(err, &actionErr) || errors.Is(err, retrieve.ErrNothingProduced) {
					logger.Error("diagnostic retrieval failed", "guid", guid, "error", err)
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			if inspect {
				if destination == "" {
					destination = cfg.Extract.Destination
				}
				return runInspect(path, destination, modeName, force, verbose, logger)
			}

			fmt.Println(path)
			return nil
		},
	}
}
