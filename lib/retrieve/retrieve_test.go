// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package retrieve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/simfetch-project/simfetch/lib/receiver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// push uploads content to the receiver's target URL the way the
// simulation server would.
func push(target string, content []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "bundle.tgz")
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	response, err := http.Post(target, writer.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	return response.Body.Close()
}

// fakeActions scripts the remote side: uploads payload to the target
// when it reports something to retrieve.
type fakeActions struct {
	resultsAvailable bool
	diagnosticFiles  map[string]string
	payload          []byte
	err              error
}

func (f *fakeActions) RequestResults(_ context.Context, _, target string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if !f.resultsAvailable {
		return false, nil
	}
	if err := push(target, f.payload); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeActions) RequestDiagnostics(_ context.Context, _, target string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.diagnosticFiles) == 0 {
		return map[string]string{}, nil
	}
	if err := push(target, f.payload); err != nil {
		return nil, err
	}
	return f.diagnosticFiles, nil
}

func TestResultsRetrievesBundle(t *testing.T) {
	payload := []byte("result bundle")
	retriever := &Retriever{
		Actions: &fakeActions{resultsAvailable: true, payload: payload},
		Logger:  quietLogger(),
	}

	destination := filepath.Join(t.TempDir(), "results.tgz")
	path, err := retriever.Results(context.Background(), "guid-1", destination)
	if err != nil {
		t.Fatal(err)
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(persisted, payload) {
		t.Errorf("persisted %q, want %q", persisted, payload)
	}
}

func TestResultsNothingProduced(t *testing.T) {
	retriever := &Retriever{
		Actions: &fakeActions{resultsAvailable: false},
		Logger:  quietLogger(),
	}

	_, err := retriever.Results(context.Background(), "guid-1", filepath.Join(t.TempDir(), "results.tgz"))
	if !errors.Is(err, ErrNothingProduced) {
		t.Errorf("error = %v, want ErrNothingProduced", err)
	}
}

func TestResultsActionErrorPropagates(t *testing.T) {
	actionErr := errors.New("simulation not found")
	retriever := &Retriever{
		Actions: &fakeActions{err: actionErr},
		Logger:  quietLogger(),
	}

	_, err := retriever.Results(context.Background(), "guid-1", filepath.Join(t.TempDir(), "results.tgz"))
	if !errors.Is(err, actionErr) {
		t.Errorf("error = %v, want wrapped action error", err)
	}
}

func TestDiagnosticsRetrievesBundle(t *testing.T) {
	payload := []byte("diagnostic bundle")
	retriever := &Retriever{
		Actions: &fakeActions{
			diagnosticFiles: map[string]string{"solver": "diagnostic.tgz"},
			payload:         payload,
		},
		Logger: quietLogger(),
	}

	destination := filepath.Join(t.TempDir(), "diagnostic.tgz")
	path, err := retriever.Diagnostics(context.Background(), "guid-1", destination)
	if err != nil {
		t.Fatal(err)
	}
	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(persisted, payload) {
		t.Errorf("persisted %q, want %q", persisted, payload)
	}
}

func TestZeroPortBindsEphemeral(t *testing.T) {
	// Hold the well-known upload port. A zero-port retriever must bind
	// an ephemeral port instead of contending for this one.
	held, err := net.Listen("tcp", fmt.Sprintf(":%d", receiver.DefaultPort))
	if err != nil {
		t.Fatalf("binding port %d: %v", receiver.DefaultPort, err)
	}
	defer held.Close()

	payload := []byte("bundle")
	retriever := &Retriever{
		Actions: &fakeActions{resultsAvailable: true, payload: payload},
		Logger:  quietLogger(),
	}

	path, err := retriever.Results(context.Background(), "guid-1", filepath.Join(t.TempDir(), "results.tgz"))
	if err != nil {
		t.Fatalf("zero-port retrieval failed: %v", err)
	}
	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(persisted, payload) {
		t.Errorf("persisted %q, want %q", persisted, payload)
	}
}

func TestDiagnosticsEmptyMappingCancels(t *testing.T) {
	retriever := &Retriever{
		Actions: &fakeActions{diagnosticFiles: map[string]string{}},
		Logger:  quietLogger(),
	}

	_, err := retriever.Diagnostics(context.Background(), "guid-1", filepath.Join(t.TempDir(), "diagnostic.tgz"))
	if !errors.Is(err, ErrNothingProduced) {
		t.Errorf("error = %v, want ErrNothingProduced", err)
	}
}
