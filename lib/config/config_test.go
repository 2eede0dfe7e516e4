// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Upload.Port != 18103 {
		t.Errorf("upload.port = %d, want 18103", cfg.Upload.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simfetch.yml")
	content := `
server:
  url: wss://sim.example.org/actions
upload:
  port: 19000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != "wss://sim.example.org/actions" {
		t.Errorf("server.url = %q", cfg.Server.URL)
	}
	if cfg.Upload.Port != 19000 {
		t.Errorf("upload.port = %d", cfg.Upload.Port)
	}
	// Unset fields keep their defaults.
	if cfg.Upload.Host != "localhost" {
		t.Errorf("upload.host = %q, want default", cfg.Upload.Host)
	}
}

func TestLoadFileRejectsBadScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simfetch.yml")
	if err := os.WriteFile(path, []byte("server:\n  url: http://sim.example.org\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("LoadFile accepted a non-websocket server URL")
	}
	if !strings.Contains(err.Error(), "server.url") {
		t.Errorf("error = %v, want server.url mention", err)
	}
}

func TestLoadWithoutEnvUsesDefaults(t *testing.T) {
	t.Setenv("SIMFETCH_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != Default().Server.URL {
		t.Errorf("server.url = %q, want default", cfg.Server.URL)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("SIMFETCH_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with a missing config file")
	}
}
