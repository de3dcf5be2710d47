// Package scraper fetches pages with a bounded retry policy and extracts
// article content from them.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent identifies this tool on every outbound request.
const UserAgent = "Mozilla/5.0 (compatible; ResearchBot/1.0; +https://example.org/)"

// ErrRetriesExhausted indicates a transient failure that persisted through
// every retry attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError describes a non-retryable HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// RetryPolicy defines retry behavior for transient failures. MaxRetries
// counts retries after the initial request, so a URL is requested at most
// MaxRetries+1 times.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the retry policy used when none is configured:
// three retries after the initial request, with geometric backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay calculates the geometric backoff delay before the given retry.
// Retry 1 waits InitialDelay; each further retry multiplies it, capped at
// MaxDelay.
func (rp RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}

	d := float64(rp.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= rp.Multiplier
	}

	if limit := float64(rp.MaxDelay); rp.MaxDelay > 0 && d > limit {
		d = limit
	}

	return time.Duration(d)
}

// Client performs GET requests with a fixed identification header and
// bounded retries on transient failures.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	userAgent  string
}

// NewClient creates a client with the given per-request timeout and retry
// policy.
func NewClient(timeout time.Duration, policy RetryPolicy) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		userAgent:  UserAgent,
	}
}

// SetUserAgent overrides the identification header.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// Fetch performs a GET request and returns the response body and status
// code. Transport errors, 429 and 5xx responses are retried with backoff up
// to the policy's attempt limit; the final error then wraps
// ErrRetriesExhausted. Other non-2xx statuses return a *StatusError
// immediately with no retry.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	var lastErr error
	lastStatus := 0
	attempts := c.policy.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		// The first attempt goes out immediately; retries back off.
		if delay := c.policy.Delay(attempt - 1); delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return nil, lastStatus, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, attempts, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus = resp.StatusCode

		if isRetryableStatus(resp.StatusCode) {
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, resp.StatusCode, &StatusError{URL: url, StatusCode: resp.StatusCode}
		}

		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", readErr)
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, lastStatus, fmt.Errorf("%w after %d attempts: %s (last error: %v)",
		ErrRetriesExhausted, attempts, url, lastErr)
}

// FetchDocument fetches a URL and parses the response as an HTML document.
func (c *Client) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, _, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// isRetryableStatus reports whether a status code indicates a transient
// condition worth retrying.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// sleep blocks for d or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
