// Package httputil provides the JSON HTTP client shared by provider adapters.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

// RequestDetails holds the details for an HTTP request
type RequestDetails struct {
	URL               string
	APIKey            string
	RequestBody       interface{}
	AdditionalHeaders map[string]string
}

// ClientOptions holds options for customizing the HTTP client
type ClientOptions struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration

	// Breaker enables a per-endpoint circuit breaker when true. A backend
	// that keeps failing then fails fast instead of burning its timeout
	// budget on every batch.
	Breaker bool
}

// Client issues JSON POST requests to a single endpoint. Unlike a shared
// package-global client, each adapter owns its own Client so tests and
// multiple orchestrators stay isolated.
type Client struct {
	httpClient *http.Client
	options    ClientOptions
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client with the given options
func NewClient(options ClientOptions) *Client {
	if options.Timeout <= 0 {
		options.Timeout = 30 * time.Second
	}
	if options.RetryDelay <= 0 {
		options.RetryDelay = 250 * time.Millisecond
	}

	c := &Client{
		httpClient: &http.Client{Timeout: options.Timeout},
		options:    options,
	}

	if options.Breaker {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "provider-endpoint",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return c
}

func drainAndCloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

func createRequest(ctx context.Context, details RequestDetails) (*http.Request, error) {
	jsonBody, err := json.Marshal(details.RequestBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", details.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request for URL %s: %w", details.URL, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if details.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+details.APIKey)
	}

	for key, value := range details.AdditionalHeaders {
		req.Header.Set(key, value)
	}

	return req, nil
}

// classifyStatus maps an HTTP status to a domain error sentinel.
func classifyStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return qerrors.ErrAuthentication
	case http.StatusTooManyRequests:
		return qerrors.ErrRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return qerrors.ErrTimeout
	default:
		return qerrors.ErrTransport
	}
}

// SendRequest posts details.RequestBody as JSON and returns the response
// body. Transport and rate-limit failures are retried with exponential
// backoff; auth failures are permanent and returned immediately. All
// failures map onto the domain error sentinels so callers can classify
// them without inspecting status codes.
func (c *Client) SendRequest(ctx context.Context, details RequestDetails) ([]byte, error) {
	if c.breaker != nil {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.sendWithRetry(ctx, details)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return nil, fmt.Errorf("circuit open for %s: %w", details.URL, qerrors.ErrTransport)
			}
			return nil, err
		}
		return result.([]byte), nil
	}

	return c.sendWithRetry(ctx, details)
}

func (c *Client) sendWithRetry(ctx context.Context, details RequestDetails) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := createRequest(ctx, details)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("request to %s: %w", details.URL, qerrors.ErrTimeout))
			}
			return fmt.Errorf("request to %s: %v: %w", details.URL, err, qerrors.ErrTransport)
		}
		defer drainAndCloseBody(resp.Body)

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response from %s: %v: %w", details.URL, err, qerrors.ErrTransport)
		}

		if resp.StatusCode != http.StatusOK {
			kindErr := classifyStatus(resp.StatusCode)
			wrapped := fmt.Errorf("request to %s failed with status %d: %w", details.URL, resp.StatusCode, kindErr)
			// Auth failures never succeed on retry
			if kindErr == qerrors.ErrAuthentication {
				return backoff.Permanent(wrapped)
			}
			return wrapped
		}

		body = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.options.RetryDelay

	retries := uint64(0)
	if c.options.RetryAttempts > 0 {
		retries = uint64(c.options.RetryAttempts)
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("request to %s: %w", details.URL, qerrors.ErrTimeout)
		}
		return nil, err
	}

	return body, nil
}
