// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrDestinationExists indicates the extraction destination already
// exists and Force was not set. Nothing has been written or removed
// when this is returned.
var ErrDestinationExists = errors.New("destination already exists")

// legacyInputName is the member name the server still emits for the
// input directory; it is remapped to canonicalInputName everywhere it
// occurs in a member's prefix-stripped path.
const (
	legacyInputName    = "input.final"
	canonicalInputName = "input"
)

// ExtractOptions controls Extract behavior.
type ExtractOptions struct {
	// Force removes a pre-existing destination before extraction.
	// Without it, a pre-existing destination fails the operation
	// before any write.
	Force bool

	// Verbose logs every extracted member.
	Verbose bool

	// Logger receives extraction events. Nil discards.
	Logger *slog.Logger
}

// Extract unpacks the bundle into destination. Each member's output
// path is its archive path with the bundle's common prefix stripped
// and every occurrence of "input.final" replaced by "input". When no
// input layout exists in the archive, an empty input directory is
// created first. Members whose output path would escape the
// destination abort the extraction.
func (b *Bundle) Extract(destination string, opts ExtractOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Overwrite policy, evaluated before anything is written: a
	// pre-existing destination is either removed wholesale under
	// Force or fails the operation. A removal failure aborts before
	// any new write.
	if _, err := os.Lstat(destination); err == nil {
		if !opts.Force {
			return fmt.Errorf("%w: %s (use force to overwrite)", ErrDestinationExists, destination)
		}
		if err := os.RemoveAll(destination); err != nil {
			return fmt.Errorf("removing existing destination %s: %w", destination, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking destination %s: %w", destination, err)
	}

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("creating destination %s: %w", destination, err)
	}

	if !b.HasInputLayout() {
		inputDir := filepath.Join(destination, canonicalInputName)
		if err := os.MkdirAll(inputDir, 0o755); err != nil {
			return fmt.Errorf("synthesizing input directory: %w", err)
		}
		logger.Info("bundle has no input layout, synthesized empty input directory", "path", inputDir)
	}

	file, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("opening bundle %s: %w", b.path, err)
	}
	defer file.Close()

	reader, err := newReader(file)
	if err != nil {
		return fmt.Errorf("opening bundle %s: %w", b.path, err)
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading member header: %w", err)
		}

		relative := outputPath(header.Name, b.prefix)
		if relative == "" {
			continue
		}
		if !filepath.IsLocal(relative) {
			return fmt.Errorf("extracting %s: member path escapes destination", header.Name)
		}
		target := filepath.Join(destination, filepath.FromSlash(relative))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := writeMember(target, tarReader); err != nil {
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
		default:
			logger.Warn("skipping unsupported member type", "member", header.Name, "type", header.Typeflag)
			continue
		}

		if opts.Verbose {
			logger.Info("extracted", "member", header.Name, "path", target)
		}
	}
	return nil
}

// outputPath computes a member's destination-relative path: strip the
// common prefix, then substitute the legacy input name with the
// canonical one wherever it occurs. The substitution is textual, not
// positional: it handles both a renamed top-level directory and a
// renamed nested file uniformly.
func outputPath(name, prefix string) string {
	remainder := strings.TrimPrefix(strings.TrimSuffix(name, "/"), prefix)
	remainder = strings.ReplaceAll(remainder, legacyInputName, canonicalInputName)
	remainder = strings.Trim(remainder, "/")
	if remainder == "" || remainder == "." {
		return ""
	}
	return remainder
}

// writeMember streams one regular file member to target, creating
// parent directories as needed.
func writeMember(target string, contents io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, contents); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
