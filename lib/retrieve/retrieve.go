// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package retrieve coordinates one bundle download: it starts the
// single-file receiver, asks the simulation server to push a bundle
// to it, and either waits for the upload or cancels the wait when the
// server reports that nothing will arrive.
//
// Sequencing follows the receiver's contract: the transfer is always
// resolved (by Wait or Cancel) before Close releases the listener.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/simfetch-project/simfetch/lib/receiver"
)

// ErrNothingProduced indicates the server had no bundle to push: no
// result bundle exists for the simulation, or diagnostic collection
// produced no files. The receiver was canceled, not failed.
var ErrNothingProduced = errors.New("remote reported nothing to retrieve")

// ErrTransferFailed indicates the server attempted an upload but the
// bundle was never persisted.
var ErrTransferFailed = errors.New("bundle transfer failed")

// RemoteActions is the consumed contract with the simulation server.
// Implemented by remote.Client; tests substitute fakes.
type RemoteActions interface {
	// RequestResults asks for the result bundle to be pushed to
	// target. False means no bundle exists.
	RequestResults(ctx context.Context, guid, target string) (bool, error)

	// RequestDiagnostics asks for a diagnostic bundle to be pushed to
	// target, returning the label→filename mapping of what the server
	// collected. An empty map means no upload will arrive.
	RequestDiagnostics(ctx context.Context, guid, target string) (map[string]string, error)
}

// Retriever runs one download per call. The same Retriever may be
// reused sequentially; each call constructs its own receiver, so no
// state is shared across invocations.
type Retriever struct {
	// Actions is the remote side of the retrieval.
	Actions RemoteActions

	// Host is the callback host the server can reach this client on.
	Host string

	// Port is the upload port to bind. Zero binds an OS-assigned
	// ephemeral port; the target URL always advertises the port the
	// receiver actually bound.
	Port int

	// Logger receives retrieval progress. Nil discards.
	Logger *slog.Logger
}

// Results downloads the result bundle for guid to destination and
// returns the persisted path.
func (r *Retriever) Results(ctx context.Context, guid, destination string) (string, error) {
	return r.retrieve(ctx, guid, destination, func(ctx context.Context, target string) (bool, error) {
		available, err := r.Actions.RequestResults(ctx, guid, target)
		if err != nil {
			return false, err
		}
		return available, nil
	})
}

// Diagnostics downloads a diagnostic bundle for guid to destination
// and returns the persisted path.
func (r *Retriever) Diagnostics(ctx context.Context, guid, destination string) (string, error) {
	return r.retrieve(ctx, guid, destination, func(ctx context.Context, target string) (bool, error) {
		files, err := r.Actions.RequestDiagnostics(ctx, guid, target)
		if err != nil {
			return false, err
		}
		logger := r.logger()
		for label, filename := range files {
			logger.Info("diagnostic collected", "guid", guid, "label", label, "file", filename)
		}
		return len(files) > 0, nil
	})
}

// retrieve runs the shared receiver lifecycle around one remote
// action. The action returns whether an upload should be awaited.
func (r *Retriever) retrieve(ctx context.Context, guid, destination string, action func(context.Context, string) (bool, error)) (string, error) {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	logger := r.logger()

	recv, err := receiver.Start(receiver.Config{Port: r.Port, Logger: logger}, destination)
	if err != nil {
		return "", err
	}
	defer recv.Close()

	target := fmt.Sprintf("http://%s:%d/upload", host, recv.Port())
	logger.Debug("requesting bundle", "guid", guid, "target", target)

	expectUpload, err := action(ctx, target)
	if err != nil {
		recv.Cancel()
		return "", err
	}
	if !expectUpload {
		recv.Cancel()
		return "", fmt.Errorf("%w: simulation %s", ErrNothingProduced, guid)
	}

	path, received, err := recv.Wait(ctx)
	if err != nil {
		recv.Cancel()
		return "", fmt.Errorf("waiting for bundle upload: %w", err)
	}
	if !received {
		return "", fmt.Errorf("%w: simulation %s", ErrTransferFailed, guid)
	}

	logger.Info("bundle retrieved", "guid", guid, "path", path)
	return path, nil
}

func (r *Retriever) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
