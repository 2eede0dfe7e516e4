// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package receiver implements the transient single-file upload
// endpoint used to receive bundles pushed back by the simulation
// server.
//
// A Receiver is single-use: it is created for one invocation, tracks
// exactly one Transfer, and is closed when that invocation ends. The
// server pushes the bundle as a multipart POST to the /upload route;
// the caller blocks in Wait until the route persists the file, or
// until Cancel resolves the wait because an out-of-band signal said
// no upload will ever arrive.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPort is the well-known upload port the simulation server
// pushes bundles to. Callers pass it explicitly via Config: the
// receiver itself has no default so that concurrent receivers (tests
// in particular) can bind ephemeral ports without colliding.
const DefaultPort = 18103

// drainGracePeriod bounds how long Close waits for in-flight
// connections to finish before forcing closure.
const drainGracePeriod = 60 * time.Second

// uploadField is the multipart form field the uploaded file arrives in.
const uploadField = "file"

// ErrBind indicates the upload port could not be bound, typically
// because another process (or another simfetch invocation) holds it.
var ErrBind = errors.New("upload port unavailable")

// Config carries the receiver's listen parameters. Port 0 binds an
// OS-assigned ephemeral port; use Port to discover it.
type Config struct {
	// Port is the TCP port to listen on.
	Port int

	// Logger receives route-level events. Nil discards.
	Logger *slog.Logger
}

// Receiver is a bound upload listener tracking a single Transfer.
type Receiver struct {
	server   *http.Server
	listener net.Listener
	transfer *transfer
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Start binds the upload listener and registers the upload route for
// the given destination file. The returned Receiver's Transfer is
// pending until the route persists a file, the route fails, or Cancel
// runs. Returns an error wrapping ErrBind when the port is taken.
func Start(cfg Config, destination string) (*Receiver, error) {
	if destination == "" {
		return nil, fmt.Errorf("receiver: destination filename is required")
	}
	absolute, err := filepath.Abs(destination)
	if err != nil {
		return nil, fmt.Errorf("receiver: resolving destination %s: %w", destination, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", ErrBind, cfg.Port, err)
	}

	r := &Receiver{
		listener: listener,
		transfer: newTransfer(absolute),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", r.handleUpload)
	r.server = &http.Server{Handler: mux}

	go func() {
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("upload listener failed", "error", err)
		}
	}()

	logger.Debug("upload listener bound", "addr", listener.Addr().String(), "destination", absolute)
	return r, nil
}

// Port returns the TCP port the receiver is bound to. Useful when the
// config requested an ephemeral port.
func (r *Receiver) Port() int {
	return r.listener.Addr().(*net.TCPAddr).Port
}

// Wait blocks until the transfer resolves or ctx is done. On a
// persisted upload it returns the destination path and true. On a
// failed write or a canceled transfer it returns "" and false: the
// two outcomes are distinguished from success by the bool, never by
// an error. The error is non-nil only when ctx ended first.
func (r *Receiver) Wait(ctx context.Context) (string, bool, error) {
	return r.transfer.wait(ctx)
}

// Cancel resolves a pending wait with a canceled outcome. It does not
// close the listener and does not interrupt an in-progress upload
// write: it races the upload route for the first resolution, and the
// first wins. Calling Cancel after resolution is a no-op.
func (r *Receiver) Cancel() {
	r.transfer.finish("", false)
}

// Close releases the listener, waiting up to the drain grace period
// for in-flight connections before forcing closure. Close must only
// be called after the transfer has resolved (by Wait or Cancel).
// Idempotent.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainGracePeriod)
		defer cancel()
		if err := r.server.Shutdown(ctx); err != nil {
			r.logger.Warn("drain period elapsed, forcing close", "error", err)
			r.closeErr = r.server.Close()
		}
	})
	return r.closeErr
}

// handleUpload accepts the single expected multipart POST and streams
// the file field to the destination. Every accepted request resolves
// the transfer exactly once, success or failure, so the waiting
// caller is never left blocked by a request that went wrong.
func (r *Receiver) handleUpload(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, _, err := request.FormFile(uploadField)
	if err != nil {
		r.logger.Error("upload request without usable file field", "error", err)
		r.transfer.finish("", false)
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := r.persist(file); err != nil {
		r.logger.Error("persisting upload failed", "destination", r.transfer.destination, "error", err)
		r.transfer.finish("", false)
		http.Error(w, "persisting upload failed", http.StatusInternalServerError)
		return
	}

	r.logger.Info("upload persisted", "destination", r.transfer.destination)
	r.transfer.finish(r.transfer.destination, true)
	fmt.Fprintln(w, "upload received")
}

// persist streams the upload body to the destination file, opened in
// write/truncate mode.
func (r *Receiver) persist(file io.Reader) error {
	out, err := os.OpenFile(r.transfer.destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return fmt.Errorf("writing destination: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return nil
}
