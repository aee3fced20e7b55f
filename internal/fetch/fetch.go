// Package fetch is the shared HTTP layer for all crawlers: bounded timeout,
// bounded retries with linearly increasing delay, browser-like headers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Portal sites reject obvious bot traffic, so requests carry a browser UA.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "ko-KR,ko;q=0.9,en;q=0.8",
	"Cache-Control":   "no-cache",
}

const maxBodyBytes = 5 * 1024 * 1024

// Error is the terminal failure of a fetch after all retries.
type Error struct {
	URL      string
	Status   int // 0 on transport errors
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempts", e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempts", e.URL, e.Err, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

// Options control a single Fetch call.
type Options struct {
	Timeout    time.Duration     // per-attempt bound, default 10s
	MaxRetries int               // extra attempts after the first, default 2
	RetryDelay time.Duration     // base delay, grows linearly per attempt
	Headers    map[string]string // merged over the defaults
}

// Client performs resilient GETs. The zero value is not usable; use New.
type Client struct {
	http     *http.Client
	defaults Options
}

func New() *Client {
	return &Client{http: &http.Client{}}
}

// NewWithDefaults returns a client whose zero-valued per-call options fall
// back to the given defaults before the package defaults apply.
func NewWithDefaults(defaults Options) *Client {
	return &Client{http: &http.Client{}, defaults: defaults}
}

// Fetch GETs url and returns the response body as text. Each attempt is
// bounded by opts.Timeout; non-2xx statuses and transport errors are retried
// up to opts.MaxRetries times with delay RetryDelay*attempt. The last failure
// is returned as *Error. Circuit-breaking is the health tracker's job, not
// this layer's.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = c.defaults.Timeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = c.defaults.MaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = c.defaults.RetryDelay
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}

	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= opts.MaxRetries+1; attempt++ {
		body, status, err := c.attempt(ctx, url, opts)
		if err == nil {
			return body, nil
		}
		lastErr = err
		lastStatus = status

		if attempt <= opts.MaxRetries {
			select {
			case <-ctx.Done():
				return "", &Error{URL: url, Status: lastStatus, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * opts.RetryDelay):
			}
		}
	}

	return "", &Error{URL: url, Status: lastStatus, Attempts: opts.MaxRetries + 1, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, url string, opts Options) (string, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return string(body), 0, nil
}
