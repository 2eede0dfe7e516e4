// Copyright 2026 The Simfetch Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote implements the client side of the simulation
// server's action interface: searching simulations and requesting
// that result or diagnostic bundles be pushed back to an upload
// target.
//
// The transport is a small JSON call protocol over a WebSocket:
// every request carries a UUID the matching response echoes back.
// The protocol semantics beyond these three actions are the server's
// business: this client only gives the consumed contract a wire.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Simulation is one row of a search result.
type Simulation struct {
	GUID     string    `json:"guid"`
	Status   string    `json:"status"`
	Progress float64   `json:"progress"`
	Updated  time.Time `json:"updated"`
}

// ActionError is a failure reported by the server for one action
// (e.g. "simulation not found"). It is a user-facing outcome, not a
// transport fault: callers log it and exit, they do not crash.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("remote action %s failed: %s", e.Action, e.Message)
}

// request is the client-to-server call envelope.
type request struct {
	ID     string         `json:"id"`
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// response is the server-to-client result envelope.
type response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Client is a connected simulation-server session. Calls are
// serialized: the CLI issues one action per invocation, so there is
// no multiplexing: a mutex guards the full write/read round trip.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	mu     sync.Mutex
}

// Dial connects to the simulation server's WebSocket endpoint.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing simulation server %s: %w", url, err)
	}
	logger.Debug("connected to simulation server", "url", url)
	return &Client{conn: conn, logger: logger}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Search lists simulations matching query (all simulations when the
// query is empty).
func (c *Client) Search(ctx context.Context, query string) ([]Simulation, error) {
	var simulations []Simulation
	params := map[string]any{}
	if query != "" {
		params["query"] = query
	}
	if err := c.call(ctx, "search", params, &simulations); err != nil {
		return nil, err
	}
	return simulations, nil
}

// RequestResults asks the server to push the result bundle for guid
// to the upload target URL. The returned bool reports whether the
// server has a bundle to push: false means the caller should cancel
// its receiver rather than wait.
func (c *Client) RequestResults(ctx context.Context, guid, target string) (bool, error) {
	var available bool
	err := c.call(ctx, "request_results", map[string]any{
		"guid":   guid,
		"target": target,
	}, &available)
	if err != nil {
		return false, err
	}
	return available, nil
}

// RequestDiagnostics asks the server to collect and push a diagnostic
// bundle for guid to the upload target URL. The returned map relates
// diagnostic labels to the filenames the server will upload; an empty
// map means nothing was produced and no upload will arrive.
func (c *Client) RequestDiagnostics(ctx context.Context, guid, target string) (map[string]string, error) {
	files := make(map[string]string)
	err := c.call(ctx, "request_diagnostics", map[string]any{
		"guid":   guid,
		"target": target,
	}, &files)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// call performs one request/response round trip. A context that ends
// mid-call unblocks the read by expiring the connection's read
// deadline.
func (c *Client) call(ctx context.Context, action string, params map[string]any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteJSON(request{ID: id, Action: action, Params: params}); err != nil {
		return fmt.Errorf("sending %s request: %w", action, err)
	}

	for {
		var reply response
		if err := c.conn.ReadJSON(&reply); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for %s response: %w", action, ctx.Err())
			}
			return fmt.Errorf("reading %s response: %w", action, err)
		}
		if reply.ID != id {
			// Stale response from an abandoned earlier call.
			c.logger.Debug("discarding unmatched response", "id", reply.ID, "action", action)
			continue
		}
		if !reply.OK {
			return &ActionError{Action: action, Message: reply.Error}
		}
		if result == nil || len(reply.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", action, err)
		}
		return nil
	}
}
