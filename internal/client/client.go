// Package client holds the typed request builders for the two remote
// service boundaries: the core service (listings and posting jobs) and
// the messaging service (conversations, payments, stats). Calls never
// retry on their own; retrying a posting job is an explicit user action
// gated by status.CanRetry.
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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// httpClient is the shared plumbing under both service clients: one
// base URL, one rate limiter so polling plus user actions cannot pile
// onto a slow backend, and a correlation ID per outbound request.
type httpClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(baseURL string, rps float64) *httpClient {
	baseURL = strings.TrimRight(baseURL, "/")
	if rps <= 0 {
		rps = 10
	}
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// do executes one request and decodes a JSON response into out (out may
// be nil when the body is irrelevant). Non-2xx responses become
// *APIError; transport failures come back wrapped.
func (c *httpClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, resp.Body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

func (c *httpClient) delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}
