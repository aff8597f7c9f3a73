// Package http provides the shared HTTP client used for catalog API calls and
// audio downloads.
//
// The Client in this package handles:
//   - A pooled transport created lazily and released with Close
//   - Per-request timeouts and User-Agent headers
//   - Retries with jittered exponential backoff for transport errors and 5xx
//   - A size floor for audio fetches (ErrContentTooSmall)
//   - JSON POST requests for the catalog API
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//	defer client.Close()
//
//	// Download audio into memory with a progress callback
//	data, err := client.Fetch(ctx, streamURL, func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
//
//	// Call a JSON API
//	body, err := client.PostJSON(ctx, apiURL, payload, nil)
//
// # Errors
//
// Status codes map to sentinel errors (ErrNotFound, ErrForbidden,
// ErrUnauthorized, ErrServerError) that callers check with errors.Is.
package http
