// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/simfetch-project/simfetch/cmd/simfetch/cli"
	"github.com/simfetch-project/simfetch/lib/bundle"
)

func inspectCommand() *cli.Command {
	var connection ServerConnection
	var destination string
	var modeName string
	var force bool
	var verbose bool

	return &cli.Command{
		Name:    "inspect",
		Summary: "Extract a downloaded bundle into a directory tree",
		Usage:   "simfetch inspect <bundle> [flags]",
		Description: `Extract a result or diagnostic bundle into a normalized
directory tree: the archive's shared leading directory is stripped,
legacy input directory names are rewritten to the canonical form, and
an input directory is synthesized when the bundle has none.

With --mode, a simulation-family finalize step runs after extraction
(goosefoot: copy input/settings.xml into settings/settings.xml).`,
		Examples: []cli.Example{
			{
				Description: "Extract into ./simulation",
				Command:     "simfetch inspect diagnostic.tgz",
			},
			{
				Description: "Re-extract over a previous run",
				Command:     "simfetch inspect diagnostic.tgz --destination /tmp/sim --force",
			},
			{
				Description: "Extract and finalize a goosefoot simulation",
				Command:     "simfetch inspect diagnostic.tgz --mode goosefoot",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVarP(&destination, "destination", "d", "", "directory to extract into (default from config, \"simulation\")")
			flagSet.StringVar(&modeName, "mode", "", "simulation family finalize mode (goosefoot)")
			flagSet.BoolVarP(&force, "force", "f", false, "replace the destination directory if it exists")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each extracted member")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one bundle argument, got %d", len(args))
			}
			if destination == "" {
				cfg, err := connection.load()
				if err != nil {
					return err
				}
				destination = cfg.Extract.Destination
			}
			logger := cli.NewCommandLogger(verbose).With("command", "inspect")
			return runInspect(args[0], destination, modeName, force, verbose, logger)
		},
	}
}

// runInspect extracts archive into destination and runs the finalize
// step for modeName. Shared between inspect and diagnostic --inspect.
func runInspect(archive, destination, modeName string, force, verbose bool, logger *slog.Logger) error {
	mode, err := bundle.ParseMode(modeName)
	if err != nil {
		return err
	}

	b, err := bundle.Open(archive)
	if err != nil {
		return err
	}
	if err := b.Extract(destination, bundle.ExtractOptions{
		Force:   force,
		Verbose: verbose,
		Logger:  logger,
	}); err != nil {
		return err
	}
	if err := mode.Finalize(destination, logger); err != nil {
		return err
	}

	fmt.Println(destination)
	return nil
}
