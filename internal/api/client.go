// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package api is the HTTP client for the inkpost backend. Auth implements
// the session store's identity provider and Blogs implements the collection
// store's table.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"inkpost/internal/session"
)

// ErrNotFound matches a 404 from the backend.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx response. Message is the backend's error text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps statuses onto the sentinels callers branch on.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case session.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// Client talks JSON to the backend's /api/v1 endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL. timeout bounds every
// request, including reading the response body.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: timeout},
	}
}

// Auth returns the identity provider backed by this client.
func (c *Client) Auth() *Auth {
	return &Auth{c: c}
}

// Blogs returns the blogs table backed by this client. tokens is consulted
// on every write.
func (c *Client) Blogs(tokens TokenSource) *Blogs {
	return &Blogs{c: c, tokens: tokens}
}

// do sends one request. in is encoded as the JSON body when non-nil, and
// a 2xx body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error response into *Error, falling back to the
// status text when the body is not the JSON envelope.
func decodeError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == "" {
		envelope.Error = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: envelope.Error}
}
