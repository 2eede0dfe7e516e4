// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for simfetch.
//
// Configuration is loaded from a single YAML file specified by:
//   - the SIMFETCH_CONFIG environment variable, or
//   - the --config flag passed to a command
//
// There are no fallbacks or automatic discovery: when neither is set,
// built-in defaults apply unchanged.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simfetch-project/simfetch/lib/receiver"
)

// Config is the simfetch client configuration.
type Config struct {
	// Server configures the simulation server connection.
	Server ServerConfig `yaml:"server"`

	// Upload configures the bundle upload callback endpoint.
	Upload UploadConfig `yaml:"upload"`

	// Extract configures bundle normalization defaults.
	Extract ExtractConfig `yaml:"extract"`
}

// ServerConfig configures the simulation server connection.
type ServerConfig struct {
	// URL is the server's WebSocket action endpoint.
	// Default: ws://localhost:8080/actions
	URL string `yaml:"url"`
}

// UploadConfig configures the transient upload receiver the server
// pushes bundles back to.
type UploadConfig struct {
	// Port is the fixed upload port. Default: 18103.
	Port int `yaml:"port"`

	// Host is the callback host advertised to the server in upload
	// target URLs. Default: localhost.
	Host string `yaml:"host"`
}

// ExtractConfig configures bundle normalization defaults.
type ExtractConfig struct {
	// Destination is the default extraction directory when a command
	// does not pass --destination.
	Destination string `yaml:"destination"`
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "ws://localhost:8080/actions",
		},
		Upload: UploadConfig{
			Port: receiver.DefaultPort,
			Host: "localhost",
		},
		Extract: ExtractConfig{
			Destination: "simulation",
		},
	}
}

// Load loads configuration from the SIMFETCH_CONFIG environment
// variable, falling back to the defaults when it is unset.
func Load() (*Config, error) {
	path := os.Getenv("SIMFETCH_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults. Environment variables never override file values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	parsed, err := url.Parse(c.Server.URL)
	if err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		errs = append(errs, fmt.Errorf("server.url must use ws:// or wss://, got %q", c.Server.URL))
	}

	if c.Upload.Port < 0 || c.Upload.Port > 65535 {
		errs = append(errs, fmt.Errorf("upload.port out of range: %d", c.Upload.Port))
	}
	if c.Upload.Host == "" {
		errs = append(errs, fmt.Errorf("upload.host is required"))
	}
	if c.Extract.Destination == "" {
		errs = append(errs, fmt.Errorf("extract.destination is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
