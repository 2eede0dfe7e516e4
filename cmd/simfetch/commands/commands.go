// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the simfetch CLI command tree: searching
// simulations, retrieving result and diagnostic bundles from the
// simulation server, and inspecting already-downloaded bundles.
package commands

import (
	"fmt"

	"github.com/simfetch-project/simfetch/cmd/simfetch/cli"
	"github.com/simfetch-project/simfetch/lib/version"
)

// Root builds and returns the complete simfetch CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "simfetch",
		Description: `simfetch: simulation bundle retrieval client.

Search simulations on a remote simulation server, retrieve their
result or diagnostic bundles, and normalize downloaded bundles into
inspectable directory trees.`,
		Subcommands: []*cli.Command{
			searchCommand(),
			resultsCommand(),
			diagnosticCommand(),
			inspectCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("simfetch %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "List running simulations",
				Command:     "simfetch search",
			},
			{
				Description: "Download the result bundle for a simulation",
				Command:     "simfetch results 0f8fad5b-d9cb-469f-a165-70867728950e",
			},
			{
				Description: "Download and inspect a diagnostic bundle",
				Command:     "simfetch diagnostic 0f8fad5b-d9cb-469f-a165-70867728950e --inspect --mode goosefoot",
			},
			{
				Description: "Inspect a bundle downloaded earlier",
				Command:     "simfetch inspect diagnostic.tgz --destination /tmp/sim --force",
			},
		},
	}
}
