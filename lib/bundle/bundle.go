// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle normalizes tar-format diagnostic bundles into
// inspectable directory trees.
//
// Bundles produced by the simulation server carry two quirks this
// package compensates for: an unpredictable common path prefix baked
// into every member, and a legacy member name ("input.final") that
// must be presented under its canonical name ("input"). Some bundles
// also omit the input directory entirely, in which case an empty one
// is synthesized at extraction time.
package bundle

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte header identifying a gzip stream. Bundles
// arrive either as plain tar or gzip-compressed tar; the layer is
// sniffed rather than trusted from the filename.
var gzipMagic = []byte{0x1f, 0x8b}

// Entry is one member of a bundle: a relative path and a flag for
// directory vs. regular file. Entries are read-only; the set is fixed
// once the bundle is opened.
type Entry struct {
	// Path is the member path with any trailing separator trimmed.
	Path string

	// Dir is true for directory members.
	Dir bool
}

// Bundle is an opened archive. Open scans the member list once; the
// entries and the computed common prefix are immutable afterwards.
// Extraction re-reads the archive to stream member contents.
type Bundle struct {
	path    string
	entries []Entry
	prefix  string
}

// Open scans the tar (or tar.gz) archive at path and computes its
// common member prefix. No filesystem writes occur.
func Open(path string) (*Bundle, error) {
	entries, err := scan(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle %s: %w", path, err)
	}
	return &Bundle{
		path:    path,
		entries: entries,
		prefix:  commonPrefix(entries),
	}, nil
}

// Entries returns the scanned member list.
func (b *Bundle) Entries() []Entry {
	return b.entries
}

// Prefix returns the longest common leading string shared by every
// non-directory member path. It may be empty, and it may end
// mid-segment: stripping is textual, matching the server's layout
// conventions.
func (b *Bundle) Prefix() string {
	return b.prefix
}

// HasInputLayout reports whether a member named prefix+"input" or
// prefix+"input.final" exists. When false, Extract synthesizes an
// empty input directory at the destination.
func (b *Bundle) HasInputLayout() bool {
	for _, entry := range b.entries {
		if entry.Path == b.prefix+"input" || entry.Path == b.prefix+"input.final" {
			return true
		}
	}
	return false
}

// scan reads the archive once and lists its members.
func scan(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := newReader(file)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading member header: %w", err)
		}
		entries = append(entries, Entry{
			Path: strings.TrimSuffix(header.Name, "/"),
			Dir:  header.Typeflag == tar.TypeDir,
		})
	}
	return entries, nil
}

// newReader wraps file with a gzip layer when the gzip magic is
// present, otherwise returns a plain buffered reader.
func newReader(file *os.File) (io.Reader, error) {
	buffered := bufio.NewReader(file)
	magic, err := buffered.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	if !bytes.Equal(magic, gzipMagic) {
		return buffered, nil
	}
	gzipReader, err := gzip.NewReader(buffered)
	if err != nil {
		return nil, fmt.Errorf("opening gzip layer: %w", err)
	}
	return gzipReader, nil
}

// commonPrefix computes the longest common leading string across the
// paths of all non-directory entries. Character-wise, not
// segment-wise: a prefix may end mid-name.
func commonPrefix(entries []Entry) string {
	prefix := ""
	first := true
	for _, entry := range entries {
		if entry.Dir {
			continue
		}
		if first {
			prefix = entry.Path
			first = false
			continue
		}
		limit := min(len(prefix), len(entry.Path))
		i := 0
		for i < limit && prefix[i] == entry.Path[i] {
			i++
		}
		prefix = prefix[:i]
	}
	if first {
		return ""
	}
	return prefix
}
