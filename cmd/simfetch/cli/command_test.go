// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "simfetch",
		Subcommands: []*Command{
			{
				Name: "search",
				Run: func(args []string) error {
					called = "search"
					return nil
				},
			},
			{
				Name: "inspect",
				Run: func(args []string) error {
					called = "inspect"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"inspect"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "inspect" {
		t.Errorf("dispatched to %q, want %q", called, "inspect")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var destination string
	var force bool

	command := &Command{
		Name: "inspect",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.StringVar(&destination, "destination", "", "extraction directory")
			flagSet.BoolVar(&force, "force", false, "overwrite existing destination")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"--destination", "/tmp/out", "--force", "bundle.tgz"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if destination != "/tmp/out" {
		t.Errorf("destination = %q", destination)
	}
	if !force {
		t.Error("force not set")
	}
}

func TestCommand_Execute_SuggestsClosestCommand(t *testing.T) {
	root := &Command{
		Name: "simfetch",
		Subcommands: []*Command{
			{Name: "search", Run: func(args []string) error { return nil }},
			{Name: "results", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute([]string{"serch"})
	if err == nil {
		t.Fatal("Execute accepted an unknown command")
	}
	if !strings.Contains(err.Error(), `"search"`) {
		t.Errorf("error %q does not suggest search", err)
	}
}

func TestCommand_Execute_SuggestsClosestFlag(t *testing.T) {
	command := &Command{
		Name: "inspect",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.Bool("force", false, "overwrite existing destination")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--forse"})
	if err == nil {
		t.Fatal("Execute accepted an unknown flag")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("error %q does not suggest --force", err)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"search", "search", 0},
		{"serch", "search", 1},
		{"diag", "diagnostic", 6},
		{"abc", "xyz", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
