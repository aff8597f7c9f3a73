package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Common errors.
var (
	ErrContentTooSmall = errors.New("http: content too small")
	ErrNotFound        = errors.New("http: resource not found")
	ErrForbidden       = errors.New("http: access forbidden")
	ErrUnauthorized    = errors.New("http: unauthorized")
	ErrServerError     = errors.New("http: server error")
	ErrClosed          = errors.New("http: client closed")
)

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests.
	// Default: 60s
	Timeout time.Duration

	// MinContentSize is the size floor for Fetch. Bodies of this many bytes
	// or fewer are rejected with ErrContentTooSmall.
	// Default: 1024
	MinContentSize int

	// UserAgent is sent with every request.
	UserAgent string

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// RetryAttempts is the number of extra attempts after the first one.
	// Only transport errors and 5xx responses are retried.
	// Default: 0
	RetryAttempts int

	// RetryCooldown is the wait before the first retry.
	// Default: 200ms
	RetryCooldown time.Duration

	// RetryExponent multiplies the cooldown after every retry.
	// Default: 4
	RetryExponent float64
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             60 * time.Second,
		MinContentSize:      1024,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		MaxIdleConnsPerHost: 16,
		RetryCooldown:       200 * time.Millisecond,
		RetryExponent:       4,
	}
}

// Client is the shared HTTP client used for catalog calls and audio fetches.
//
// The underlying pooled transport is created on first use and shared by all
// callers. Close releases it; calls made after Close fail with ErrClosed.
// Client is safe for concurrent use.
//
// Example usage:
//
//	client := NewClient(DefaultOptions())
//	defer client.Close()
//
//	data, err := client.Fetch(ctx, streamURL, nil)
type Client struct {
	opts Options

	mu     sync.Mutex
	client *http.Client
	closed bool
}

// NewClient creates a new HTTP client with the given options.
//
// No connections are opened until the first request.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.RetryExponent < 1 {
		opts.RetryExponent = 1
	}
	return &Client{opts: opts}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: &buf,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// It is -1 when the server did not send one.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Fetch downloads url into memory.
//
// Success requires a 2xx status and a body larger than MinContentSize bytes;
// anything smaller is almost always an error page and yields
// ErrContentTooSmall. onProgress may be nil.
//
// Example:
//
//	data, err := client.Fetch(ctx, streamURL, func(written, total int64) {
//	    if total > 0 {
//	        fmt.Printf("%.1f%%\r", float64(written)/float64(total)*100)
//	    }
//	})
func (c *Client) Fetch(ctx context.Context, url string, onProgress func(written, total int64)) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, url, nil, nil, onProgress)
	if err != nil {
		return nil, err
	}
	if len(data) <= c.opts.MinContentSize {
		return nil, fmt.Errorf("%w: %d bytes from %s", ErrContentTooSmall, len(data), url)
	}
	return data, nil
}

// Get performs a GET request and returns the body without a size floor.
//
// Use it for small resources such as cover art.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil, nil, nil)
}

// PostJSON encodes payload as JSON, posts it to url and returns the raw
// response body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, header http.Header) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	h := http.Header{}
	for k, v := range header {
		h[k] = v
	}
	h.Set("Content-Type", "application/json")

	return c.do(ctx, http.MethodPost, url, body, h, nil)
}

// Close tears down the shared connection pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	c.closed = true
}

// httpClient returns the pooled client, creating it on first use.
func (c *Client) httpClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.client == nil {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: c.opts.MaxIdleConnsPerHost,
			MaxIdleConns:        c.opts.MaxIdleConnsPerHost * 2,
			IdleConnTimeout:     90 * time.Second,
		}
		c.client = &http.Client{
			Transport: transport,
			Timeout:   c.opts.Timeout,
		}
	}
	return c.client, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, header http.Header, onProgress func(written, total int64)) ([]byte, error) {
	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}

		data, err := readBody(resp, onProgress)
		resp.Body.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}
		return data, nil
	}

	return nil, fmt.Errorf("%s request failed after %d attempts: %w", method, c.opts.RetryAttempts+1, lastErr)
}

func readBody(resp *http.Response, onProgress func(written, total int64)) ([]byte, error) {
	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}

	var w io.Writer = &buf
	if onProgress != nil {
		w = &ProgressWriter{
			Writer:   &buf,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// backoff waits cooldown * exponent^(attempt-1) with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	wait := float64(c.opts.RetryCooldown) * math.Pow(c.opts.RetryExponent, float64(attempt-1))

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(wait * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
