// Package proxy holds the HTTP clients for the external collaborators: the
// assistant chat endpoint, the reminder and expense sync endpoints, the
// grocery planner and the push relay. Every call is a single JSON request
// bounded by the client timeout; nothing is retried.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one request when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// ErrNotConfigured is returned by clients built without an endpoint.
var ErrNotConfigured = errors.New("endpoint not configured")

// StatusError is a non-2xx answer from a proxy endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy returned status %d", e.Code)
	}
	return fmt.Sprintf("proxy returned status %d: %s", e.Code, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// client is the JSON transport shared by every endpoint client.
type client struct {
	endpoint string
	http     *http.Client
}

func newClient(endpoint string, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

// do sends in (if non-nil) as the JSON body and decodes the answer into out
// (if non-nil).
func (c client) do(ctx context.Context, method, url string, in, out any) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
