// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrMissingSettings indicates the goosefoot finalize step could not
// find the settings file in the extracted input directory.
var ErrMissingSettings = errors.New("settings file missing from extracted input")

// Mode selects the post-extraction finalize behavior for a recognized
// simulation family. The set is closed: ParseMode rejects names it
// does not know rather than silently skipping finalize.
type Mode int

const (
	// ModeNone performs no finalize step.
	ModeNone Mode = iota

	// ModeGoosefoot copies the extracted input settings file into a
	// sibling settings directory, the layout goosefoot tooling expects.
	ModeGoosefoot
)

// ParseMode maps a mode name to its Mode. The empty string is
// ModeNone (extraction without finalize).
func ParseMode(name string) (Mode, error) {
	switch name {
	case "":
		return ModeNone, nil
	case "goosefoot":
		return ModeGoosefoot, nil
	default:
		return ModeNone, fmt.Errorf("unrecognized inspection mode %q (recognized: goosefoot)", name)
	}
}

// String returns the mode's flag-value name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return ""
	case ModeGoosefoot:
		return "goosefoot"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Finalize runs the mode's post-extraction step against an extracted
// destination tree.
func (m Mode) Finalize(destination string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch m {
	case ModeNone:
		return nil
	case ModeGoosefoot:
		return finalizeGoosefoot(destination, logger)
	default:
		return fmt.Errorf("unrecognized inspection mode %d", int(m))
	}
}

// finalizeGoosefoot copies destination/input/settings.xml to
// destination/settings/settings.xml.
func finalizeGoosefoot(destination string, logger *slog.Logger) error {
	source := filepath.Join(destination, canonicalInputName, "settings.xml")
	in, err := os.Open(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingSettings, source)
		}
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer in.Close()

	settingsDir := filepath.Join(destination, "settings")
	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	target := filepath.Join(settingsDir, "settings.xml")
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying settings file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	logger.Info("finalized goosefoot layout", "settings", target)
	return nil
}
