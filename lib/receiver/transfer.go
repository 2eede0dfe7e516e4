// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

package receiver

import (
	"context"
	"sync"
)

// transferState tracks the three-state lifecycle of the single upload.
type transferState int

const (
	statePending transferState = iota
	stateCompleted
	stateCanceled
)

// transfer is the single tracked upload for one receiver. The upload
// route and Cancel both race to resolve it; only the first resolution
// attempt wins, and every later attempt is a no-op. Waiters block on
// the done channel, which closes exactly once at resolution.
type transfer struct {
	destination string

	mu    sync.Mutex
	state transferState
	path  string // absolute destination path; set only on completion
	done  chan struct{}
}

func newTransfer(destination string) *transfer {
	return &transfer{
		destination: destination,
		done:        make(chan struct{}),
	}
}

// finish resolves the transfer. completed=true records the path as the
// outcome; completed=false marks the transfer canceled (which covers
// both explicit cancellation and a failed persist). No-op after the
// first resolution.
func (t *transfer) finish(path string, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != statePending {
		return
	}
	if completed {
		t.state = stateCompleted
		t.path = path
	} else {
		t.state = stateCanceled
	}
	close(t.done)
}

// wait blocks until the transfer resolves or ctx is done.
func (t *transfer) wait(ctx context.Context) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case <-t.done:
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path, t.state == stateCompleted, nil
}
