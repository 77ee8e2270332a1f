// Package httpclient is a thin retrying wrapper over net/http. The card
// fetch at agent construction uses the conservative strategy; message
// exchanges pass through with retries disabled.
package httpclient

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryStrategy selects how a failed request is retried.
type RetryStrategy int

const (
	// NoRetry fails immediately.
	NoRetry RetryStrategy = iota
	// ConservativeRetry makes at most two quick retries on server errors.
	ConservativeRetry
	// SmartRetry backs off exponentially, honoring Retry-After when present.
	SmartRetry
)

// RetryStrategyFunc maps an HTTP status code to a retry strategy.
type RetryStrategyFunc func(statusCode int) RetryStrategy

// Client wraps an http.Client with status-aware retries.
type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	strategyFunc RetryStrategyFunc
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithMaxRetries caps the number of retry attempts.
func WithMaxRetries(max int) Option {
	return func(c *Client) { c.maxRetries = max }
}

// WithBaseDelay sets the base backoff delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) { c.baseDelay = delay }
}

// WithRetryStrategy replaces the status-to-strategy mapping. Use
// func(int) RetryStrategy { return NoRetry } to disable retries entirely.
func WithRetryStrategy(strategyFunc RetryStrategyFunc) Option {
	return func(c *Client) { c.strategyFunc = strategyFunc }
}

// WithLogger sets the logger used for retry notices.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client with sane defaults: 60s request timeout, 3 retries,
// 2s base delay, DefaultRetryStrategy.
func New(opts ...Option) *Client {
	c := &Client{
		client:       &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseDelay:    2 * time.Second,
		strategyFunc: DefaultRetryStrategy,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultRetryStrategy retries rate limits and transient server errors.
func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do executes the request, retrying per the configured strategy. The request
// body is replayed through GetBody on each retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to recreate request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, strategy, err := c.attemptRequest(req)
		if err == nil {
			return resp, nil
		}
		if strategy == NoRetry {
			// Non-retryable status: hand the response back so the caller
			// can inspect it. Network failures carry no response.
			if resp != nil {
				return resp, nil
			}
			return nil, err
		}

		delay := c.calculateDelay(strategy, attempt, resp)
		if attempt >= c.maxRetries || delay <= 0 {
			statusCode := 0
			if resp != nil {
				statusCode = resp.StatusCode
			}
			return resp, &RetryableError{
				StatusCode: statusCode,
				Message:    fmt.Sprintf("max HTTP retries (%d) exceeded", c.maxRetries),
				Err:        err,
			}
		}

		if resp != nil {
			resp.Body.Close()
			c.logger.Debug("retrying request",
				"status", resp.StatusCode, "delay", delay,
				"attempt", attempt+1, "max", c.maxRetries)
		}
		time.Sleep(delay)
	}

	return nil, &RetryableError{
		Message: fmt.Sprintf("max retries exceeded after %d attempts", c.maxRetries),
		Err:     fmt.Errorf("max retries exceeded"),
	}
}

func (c *Client) attemptRequest(req *http.Request) (*http.Response, RetryStrategy, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		// Network-level failure: nothing to replay against, let the caller decide.
		return nil, NoRetry, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, NoRetry, nil
	}
	return resp, c.strategyFunc(resp.StatusCode), fmt.Errorf("HTTP %d", resp.StatusCode)
}

func (c *Client) calculateDelay(strategy RetryStrategy, attempt int, resp *http.Response) time.Duration {
	switch strategy {
	case SmartRetry:
		if resp != nil {
			if after := parseRetryAfter(resp.Header); after > 0 {
				return after
			}
		}
		return time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	case ConservativeRetry:
		if attempt >= 2 {
			return 0
		}
		return time.Duration(2+attempt) * time.Second
	default:
		return 0
	}
}

func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
