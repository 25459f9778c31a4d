// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grafana

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

const (
	// DefaultUserAgent identifies grafprov in Grafana access logs.
	DefaultUserAgent = "grafprov/1.0"

	// RequestIDHeader carries a per-call id that also appears in our logs.
	RequestIDHeader = "X-Request-Id"

	// maxResponseBytes bounds how much of a response body is kept.
	maxResponseBytes = 1 << 20
)

// Auth attaches credentials to an outbound request.
type Auth interface {
	apply(req *http.Request)
}

// BasicAuth authenticates with the Grafana admin user. Used for service
// account and token calls.
type BasicAuth struct {
	User     string
	Password string
}

func (a BasicAuth) apply(req *http.Request) {
	req.SetBasicAuth(a.User, a.Password)
}

// BearerToken authenticates with a service account token. Used for data
// source and dashboard calls.
type BearerToken string

func (t BearerToken) apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+string(t))
}

// Response is the raw outcome of a call that reached Grafana.
type Response struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsConflict reports a 409 status, which Grafana returns for existing resources.
func (r *Response) IsConflict() bool {
	return r != nil && r.StatusCode == http.StatusConflict
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body (status %d)", r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// BodyString returns the body trimmed for log and error messages.
func (r *Response) BodyString() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Body))
}

// Option configures a Client.
type Option func(*Client)

// Client calls the Grafana HTTP API.
type Client struct {
	baseURL            string
	userAgent          string
	timeout            time.Duration
	maxRetries         int
	retryInterval      time.Duration
	maxRetryElapsed    time.Duration
	insecureSkipVerify bool
	limiter            *rate.Limiter
	httpClient         *http.Client
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetry sets how many times a transient failure is retried and the
// first backoff interval. Zero retries disables retrying.
func WithRetry(maxRetries int, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryInterval = initialInterval
	}
}

// WithMaxRetryElapsed bounds the total time spent retrying one call.
func WithMaxRetryElapsed(d time.Duration) Option {
	return func(c *Client) {
		c.maxRetryElapsed = d
	}
}

// WithRateLimit caps the request rate towards Grafana.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecureSkipVerify = skip
	}
}

// WithHTTPClient replaces the underlying HTTP client. Transport options are
// not applied to a caller-provided client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient returns a Client for the Grafana instance at baseURL.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "grafana base URL is empty")
	}

	c := &Client{
		baseURL:         baseURL,
		userAgent:       DefaultUserAgent,
		timeout:         defaults.HTTPClientTimeout,
		maxRetries:      defaults.RetryMaxAttempts,
		retryInterval:   defaults.RetryInitialInterval,
		maxRetryElapsed: defaults.RetryMaxElapsed,
		limiter:         rate.NewLimiter(rate.Limit(defaults.RateLimitPerSecond), defaults.RateLimitBurst),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: newTransport(c.insecureSkipVerify),
		}
	}

	return c, nil
}

func newTransport(insecureSkipVerify bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		// Timeouts
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		ExpectContinueTimeout: defaults.HTTPExpectContinueTimeout,

		// Connection reuse; every call goes to the same host.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     defaults.HTTPIdleConnTimeout,
		ForceAttemptHTTP2:   true,

		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // opt-in for self-signed lab instances
		},
	}
}

// BaseURL returns the normalized Grafana base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// retryableStatusError marks a gateway-class status that is worth retrying.
type retryableStatusError struct {
	status int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("transient status %d", e.status)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Do sends a JSON request and returns Grafana's response whatever its status.
// Transport failures and 502/503/504 are retried with exponential backoff;
// when retries run out on a transient status, that last response is returned.
// An error is returned only when Grafana could not be reached at all, with
// code TRANSPORT.
func (c *Client) Do(ctx context.Context, method, path string, auth Auth, payload any) (*Response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode request payload", err)
		}
	}

	requestID := uuid.NewString()
	endpoint := endpointLabel(path)

	var (
		last     *Response
		attempts int
	)

	op := func() error {
		attempts++
		resp, err := c.send(ctx, method, path, auth, body, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = resp
		if isRetryableStatus(resp.StatusCode) {
			return &retryableStatusError{status: resp.StatusCode}
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		grafanaRequestRetries.WithLabelValues(endpoint).Inc()
		slog.Warn("retrying grafana request",
			"method", method,
			"path", path,
			"attempt", attempts,
			"wait", wait.String(),
			"error", err,
			"request_id", requestID)
	}

	err := backoff.RetryNotify(op, c.newBackOff(ctx), notify)
	if err == nil {
		return last, nil
	}

	if _, ok := err.(*retryableStatusError); ok && last != nil {
		return last, nil
	}

	return nil, apperrors.WrapWithContext(apperrors.ErrCodeTransport,
		fmt.Sprintf("%s %s failed", method, path), err,
		map[string]any{
			"attempts":   attempts,
			"request_id": requestID,
		})
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	eb.MaxInterval = defaults.RetryMaxInterval
	eb.MaxElapsedTime = c.maxRetryElapsed

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

func (c *Client) send(ctx context.Context, method, path string, auth Auth, body []byte, requestID string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if auth != nil {
		auth.apply(req)
	}

	endpoint := endpointLabel(path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	grafanaRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if err != nil {
		grafanaRequestsTotal.WithLabelValues(method, endpoint, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		grafanaRequestsTotal.WithLabelValues(method, endpoint, "error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	grafanaRequestsTotal.WithLabelValues(method, endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	slog.Debug("grafana request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"request_id", requestID)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

// endpointLabel turns a request path into a low-cardinality metric label by
// dropping the query and replacing numeric segments with ":id".
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
