// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/simfetch-project/simfetch/lib/config"
	"github.com/simfetch-project/simfetch/lib/remote"
)

// ServerConnection manages the config flag shared by every command
// that talks to the simulation server. The config file is addressed
// by --config or the SIMFETCH_CONFIG environment variable; built-in
// defaults apply when neither is set.
type ServerConnection struct {
	ConfigPath string
}

// AddFlags registers --config on the command's flag set.
func (c *ServerConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigPath, "config", "",
		"path to simfetch config file (default: $SIMFETCH_CONFIG)")
}

// load resolves the effective configuration.
func (c *ServerConnection) load() (*config.Config, error) {
	if c.ConfigPath != "" {
		return config.LoadFile(c.ConfigPath)
	}
	return config.Load()
}

// dial loads the configuration and connects to the simulation server.
func (c *ServerConnection) dial(ctx context.Context, logger *slog.Logger) (*remote.Client, *config.Config, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	client, err := remote.Dial(ctx, cfg.Server.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
