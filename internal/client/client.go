// Package client is the plugin half of the pipeline: it serializes the
// selection, asks the annotation service, falls back to local heuristics,
// folds in saved manual edits and persists the result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mj1618/focusorder/internal/protocol"
)

// DefaultTimeout bounds a single annotate call.
const DefaultTimeout = 45 * time.Second

// ServiceError is a non-2xx answer from the service.
type ServiceError struct {
	Status int
	Code   string
	Reason string
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("service returned %d", e.Status)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Client calls the annotation service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// New returns a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Annotate posts req and returns the service's response.
func (c *Client) Annotate(ctx context.Context, req protocol.AnnotateRequest) (protocol.AnnotateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return protocol.AnnotateResponse{}, fmt.Errorf("encode request: %w", err)
	}
	var out protocol.AnnotateResponse
	if err := c.do(ctx, http.MethodPost, "/annotate", bytes.NewReader(body), &out); err != nil {
		return protocol.AnnotateResponse{}, err
	}
	if !out.OK {
		return out, &ServiceError{Status: http.StatusOK, Code: out.Error, Reason: out.Reason}
	}
	return out, nil
}

// Health fetches the service's health probe.
func (c *Client) Health(ctx context.Context) (protocol.Health, error) {
	var h protocol.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Warmup probes the service in the background so a cold start overlaps
// with local work. The channel receives the probe's outcome once and is
// closed; callers may ignore it.
func (c *Client) Warmup(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := c.Health(ctx)
		done <- err
	}()
	return done
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &ServiceError{Status: resp.StatusCode}
		var failure protocol.AnnotateResponse
		if json.NewDecoder(resp.Body).Decode(&failure) == nil {
			se.Code, se.Reason = failure.Error, failure.Reason
		}
		return se
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
