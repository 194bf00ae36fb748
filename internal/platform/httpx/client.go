package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting and a single retry
// policy shared by every provider. Transport errors, 429 and 5xx responses
// are retried with exponential back-off; any other non-2xx status fails
// immediately.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxRetries uint64
	UserAgent  string
}

// ClientOptions holds options for creating a new Client.
type ClientOptions struct {
	Timeout time.Duration
	// RequestsPerSec sets a sustained request rate. Mutually exclusive with
	// MinInterval; MinInterval wins when both are set.
	RequestsPerSec int
	// MinInterval enforces a minimum gap between calls, for providers whose
	// published limit is "one call every N seconds".
	MinInterval time.Duration
	MaxRetries  int
	UserAgent   string
}

// NewClient creates a new HTTP client with rate limiting.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	limiter := rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec)
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:    limiter,
		MaxRetries: uint64(opts.MaxRetries),
		UserAgent:  opts.UserAgent,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		resp.Body.Close()
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if statusErr.Retryable() {
			return statusErr
		}
		// Client errors other than 429 will not get better on retry.
		return backoff.Permanent(statusErr)
	}

	backoffStrategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.MaxRetries), ctx)

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return nil, err
	}

	return resp, nil
}

// GetJSON fetches a URL and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// GetBody fetches a URL and returns the raw response body.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// StatusError represents an error due to a non-200 HTTP status code.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("non-200 status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth retrying: rate limiting and
// server-side failures are, other client errors are not.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
