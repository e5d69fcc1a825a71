// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package httpclient provides a gated, retrying HTTP client with RoundTripper middleware.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

// Attempt outcomes reported to an AttemptObserver
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
)

// RoundTripper interface for request middleware
type RoundTripper interface {
	RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error)
}

// AttemptObserver receives the outcome of every network attempt.
type AttemptObserver interface {
	RecordAttempt(ctx context.Context, outcome string)
}

// Client represents a generic HTTP client with retry logic and middleware support
type Client struct {
	config        Config
	httpClient    *http.Client
	roundTrippers []RoundTripper
}

// Request represents an HTTP request configuration
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    io.Reader
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do executes an HTTP request. Only attempt timeouts are retried, with a linear backoff;
// status errors and other transport failures are returned on the first occurrence.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		payload = b
	}

	var response *Response

	err := utils.Retry(ctx, utils.RetryConfig{
		MaxAttempts: c.config.MaxAttempts,
		Backoff:     utils.LinearBackoff(c.config.BackoffStep),
		Sleep:       c.config.Sleep,
		ShouldRetry: func(err error) bool {
			return c.shouldRetry(ctx, err)
		},
	}, func(attempt int) error {
		resp, err := c.attempt(ctx, req, payload)
		c.observe(ctx, err)
		if err != nil {
			slog.DebugContext(ctx, "http attempt failed",
				"url", req.URL,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		response = resp
		return nil
	})
	if err == nil {
		return response, nil
	}

	var exhausted *utils.ExhaustedError
	if errors.As(err, &exhausted) {
		err = &TimeoutError{URL: req.URL, Attempts: exhausted.Attempts, Err: exhausted.Err}
	}

	slog.ErrorContext(ctx, "request failed", "url", req.URL, "error", err)

	return nil, err
}

// attempt performs one gated request bounded by the per-attempt timeout.
// The gate permit is held only for the duration of the network exchange.
func (c *Client) attempt(ctx context.Context, req Request, payload []byte) (*Response, error) {
	if err := c.config.Gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.config.Gate.Release()

	attemptCtx := ctx
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	return c.doRequest(attemptCtx, Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    body,
	})
}

// doRequest performs a single HTTP request with RoundTripper middleware
func (c *Client) doRequest(ctx context.Context, reqConfig Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, reqConfig.Method, reqConfig.URL, reqConfig.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	for key, value := range reqConfig.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.executeRoundTripperChain(httpReq, 0)
	if err != nil {
		// round trippers may have added credentials to the request URL
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = reqConfig.URL
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       body,
			URL:        reqConfig.URL,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// shouldRetry accepts attempt timeouts only; caller cancellation stops the loop.
func (c *Client) shouldRetry(ctx context.Context, err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	return isTimeout(ctx, err)
}

func (c *Client) observe(ctx context.Context, err error) {
	if c.config.Observer == nil {
		return
	}

	var statusErr *StatusError
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		outcome = OutcomeStatus
	case isTimeout(ctx, err):
		outcome = OutcomeTimeout
	default:
		outcome = OutcomeTransport
	}
	c.config.Observer.RecordAttempt(ctx, outcome)
}

// Request performs an HTTP request with the specified verb
func (c *Client) Request(ctx context.Context, verb, url string, body io.Reader, headers map[string]string) (*Response, error) {
	req := Request{
		Method:  verb,
		URL:     url,
		Headers: headers,
		Body:    body,
	}
	return c.Do(ctx, req)
}

// executeRoundTripperChain executes the RoundTripper middleware chain
func (c *Client) executeRoundTripperChain(req *http.Request, index int) (*http.Response, error) {
	if index >= len(c.roundTrippers) {
		return c.httpClient.Do(req)
	}

	next := func(req *http.Request) (*http.Response, error) {
		return c.executeRoundTripperChain(req, index+1)
	}

	return c.roundTrippers[index].RoundTrip(req, next)
}

// AddRoundTripper adds a middleware RoundTripper to the client.
// This method is not safe for concurrent use and should only be called
// during client initialization before making any requests.
func (c *Client) AddRoundTripper(rt RoundTripper) {
	c.roundTrippers = append(c.roundTrippers, rt)
}

// Gate returns the admission gate the client acquires before each attempt.
func (c *Client) Gate() *AdmissionGate {
	return c.config.Gate
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config Config) *Client {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	base := config.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		config:        config,
		roundTrippers: make([]RoundTripper, 0),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(base),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}
