// Package client is a Go client for the SMILES parse HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client calls the SMILES parse API.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// APIError represents an error response from the API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return fmt.Sprintf("smiles: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, msg, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsParseFailure reports whether the server rejected the SMILES itself.
func (e *APIError) IsParseFailure() bool {
	return strings.HasPrefix(e.Code, "SMI_")
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.InvalidParam("client: base URL is required")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.InvalidParam("client: invalid base URL").WithCause(err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.InvalidParam("client: base URL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("smiles-go-client/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────────────────

// Parse parses one SMILES.  opts may be nil.
func (c *Client) Parse(ctx context.Context, smiles string, opts *ParseOptions) (*ParseResult, error) {
	if smiles == "" {
		return nil, errors.InvalidParam("client: smiles is required")
	}
	var out ParseResult
	if err := c.post(ctx, "/api/v1/smiles/parse", parseRequest{SMILES: smiles, ParseOptions: deref(opts)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseReaction parses a reaction SMILES.
func (c *Client) ParseReaction(ctx context.Context, smiles string, opts *ParseOptions) (*Reaction, error) {
	if smiles == "" {
		return nil, errors.InvalidParam("client: smiles is required")
	}
	var out Reaction
	if err := c.post(ctx, "/api/v1/reactions/parse", parseRequest{SMILES: smiles, ParseOptions: deref(opts)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseBatch parses items with shared settings.  Per-item failures are
// reported in the result, not as an error.
func (c *Client) ParseBatch(ctx context.Context, items []string, opts *ParseOptions) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, errors.InvalidParam("client: at least one item is required")
	}
	var out BatchResult
	if err := c.post(ctx, "/api/v1/smiles/batch", batchRequest{Items: items, ParseOptions: deref(opts)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurgeCache drops the server's cached summaries and returns the number
// removed.
func (c *Client) PurgeCache(ctx context.Context) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/cache", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.get(ctx, "/healthz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready returns the readiness report.  A not-ready server answers 503,
// which is returned as an *APIError after retries.
func (c *Client) Ready(ctx context.Context) (*Readiness, error) {
	var out Readiness
	if err := c.get(ctx, "/readyz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func deref(o *ParseOptions) ParseOptions {
	if o == nil {
		return ParseOptions{}
	}
	return *o
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

// do performs an HTTP request, retrying network failures, 5xx responses and
// 429 responses that carry Retry-After.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.baseURL + path

	var bodyBytes []byte
	if body != nil {
		var err error
		if bodyBytes, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.NewString()
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 400 {
			if result != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, result); err != nil {
					return fmt.Errorf("failed to unmarshal response: %w", err)
				}
			}
			return nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Code == "" {
				apiErr.Message = string(respBody)
			}
			apiErr.StatusCode = resp.StatusCode
			if apiErr.RequestID == "" {
				apiErr.RequestID = requestID
			}
		}
		lastErr = apiErr

		if resp.StatusCode == http.StatusTooManyRequests {
			seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
			if err != nil || attempt >= c.retryMax {
				return apiErr
			}
			c.logger.Infof("rate limited, retrying after %d seconds", seconds)
			select {
			case <-time.After(time.Duration(seconds) * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if !apiErr.IsServerError() {
			return apiErr
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// calculateBackoff returns exponential backoff plus up to 25% jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}
