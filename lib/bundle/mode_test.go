// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("goosefoot")
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeGoosefoot {
		t.Errorf("mode = %v, want ModeGoosefoot", mode)
	}

	mode, err = ParseMode("")
	if err != nil {
		t.Fatal(err)
	}
	if mode != ModeNone {
		t.Errorf("mode = %v, want ModeNone", mode)
	}

	if _, err := ParseMode("heron"); err == nil {
		t.Error("ParseMode accepted an unrecognized mode name")
	}
}

func TestGoosefootFinalizeCopiesSettings(t *testing.T) {
	destination := t.TempDir()
	if err := os.MkdirAll(filepath.Join(destination, "input"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destination, "input", "settings.xml"), []byte("<settings/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ModeGoosefoot.Finalize(destination, quietLogger()); err != nil {
		t.Fatal(err)
	}

	copied, err := os.ReadFile(filepath.Join(destination, "settings", "settings.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(copied) != "<settings/>" {
		t.Errorf("copied settings = %q", copied)
	}
}

func TestGoosefootFinalizeMissingSettings(t *testing.T) {
	destination := t.TempDir()
	if err := os.MkdirAll(filepath.Join(destination, "input"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := ModeGoosefoot.Finalize(destination, quietLogger())
	if !errors.Is(err, ErrMissingSettings) {
		t.Errorf("error = %v, want ErrMissingSettings", err)
	}
}

func TestNoneFinalizeIsNoOp(t *testing.T) {
	destination := t.TempDir()
	if err := ModeNone.Finalize(destination, quietLogger()); err != nil {
		t.Fatal(err)
	}
	listing, err := os.ReadDir(destination)
	if err != nil {
		t.Fatal(err)
	}
	if len(listing) != 0 {
		t.Errorf("ModeNone finalize created %d entries", len(listing))
	}
}
