// Package transport performs the HTTP calls behind every SDK operation:
// it resolves paths against the configured base URL, attaches the bearer
// token, and normalises failures into a single TransportError shape.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/auth"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
)

const (
	DefaultTimeout = 60 * time.Second

	HeaderRequestID = "X-Request-ID"
)

// Options configures a Client
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	TokenSource auth.TokenSource
	HTTPClient  *http.Client
	Logger      logr.Logger
	Debug       bool
	// Registerer receives the request metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Client is a JSON-over-HTTP client for the agentdesk API
type Client struct {
	baseURL    string
	timeout    time.Duration
	tokens     auth.TokenSource
	httpClient *http.Client
	log        logr.Logger
	debug      bool
	metrics    *metrics
}

// New creates a new Client
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.New(apperrors.ErrCodeConfig, fmt.Sprintf("invalid base URL %q", opts.BaseURL), err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    timeout,
		tokens:     opts.TokenSource,
		httpClient: httpClient,
		log:        log.WithName("transport"),
		debug:      opts.Debug,
		metrics:    m,
	}, nil
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Patch performs a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.New(apperrors.ErrCodeEncoding, "failed to marshal request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewTransportError(method, path, 0, "failed to create request", nil, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth.AddHeaders(req, c.tokens)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		c.log.Error(err, "request failed", "method", method, "path", path, "requestID", requestID)
		return apperrors.NewTransportError(method, path, 0, "failed to send request", nil, err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	c.metrics.observe(method, resp.StatusCode, elapsed)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(method, path, resp.StatusCode, "failed to read response", nil, err)
	}

	if c.debug {
		c.log.V(1).Info("request completed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration", elapsed,
			"requestID", requestID,
			"response", truncate(data, 512))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewTransportError(method, path, resp.StatusCode, "failed to decode response", nil, err)
	}

	return nil
}

// errorFromResponse unwraps the server's error envelope into a TransportError.
// The message is taken from "message", then "error", then the status text.
func errorFromResponse(method, path string, status int, data []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = nil
	}

	message := http.StatusText(status)
	if payload != nil {
		if m, ok := payload["message"].(string); ok && m != "" {
			message = m
		} else if m, ok := payload["error"].(string); ok && m != "" {
			message = m
		}
	} else if s := strings.TrimSpace(string(data)); s != "" {
		message = fmt.Sprintf("unexpected status %d: %s", status, s)
	}

	return apperrors.NewTransportError(method, path, status, message, payload, nil)
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
