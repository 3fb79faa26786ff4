// Package api implements the REST client for the Renvo backend. Every
// response arrives in a {"data": ...} envelope; errors carry
// {"error": "..."}. The client injects the bearer token set by the session
// store and reports any 401 on a token-carrying request through the
// unauthorized hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// Config captures the settings for constructing a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client issues authenticated REST calls. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// SetUnauthorizedHandler registers the hook invoked when a token-carrying
// request comes back 401. Calls without a token (login, register) never
// trigger it.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// dataEnvelope is the success wrapper used by every endpoint.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// errorEnvelope is the error wrapper used by every endpoint.
type errorEnvelope struct {
	Error string `json:"error"`
}

// do issues one REST call. endpoint is the logical name used for metrics and
// logs; out, when non-nil, receives the decoded "data" payload.
func (c *Client) do(ctx context.Context, method, endpoint, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	timer := prometheus.NewTimer(metrics.APIRequestDuration.WithLabelValues(endpoint))
	resp, err := c.http.Do(req)
	timer.ObserveDuration()
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		var env dataEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("%s: decode response: %w", endpoint, err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", endpoint, err)
		}
		return nil
	}

	var env errorEnvelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	apiErr := newAPIError(resp.StatusCode, env.Error)
	c.log.Debug().Int("status", resp.StatusCode).Str("endpoint", endpoint).Str("message", apiErr.Message).Msg("request rejected")

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook()
		}
	}
	return apiErr
}
