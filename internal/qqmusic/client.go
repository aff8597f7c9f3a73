package qqmusic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

const (
	// DefaultAPIURL is the catalog's unified module endpoint.
	DefaultAPIURL = "https://u.y.qq.com/cgi-bin/musicu.fcg"

	// DefaultStreamHost is used when the catalog does not return a host.
	DefaultStreamHost = "https://isure.stream.qqmusic.qq.com/"

	clientVersion = 13020508
	clientType    = 11
)

// Poster sends a JSON request and returns the raw response body.
// *http.Client from the internal http package satisfies it.
type Poster interface {
	PostJSON(ctx context.Context, url string, payload any, header http.Header) ([]byte, error)
}

// Options configures the catalog client.
type Options struct {
	// APIURL overrides DefaultAPIURL.
	APIURL string

	// StreamHost overrides DefaultStreamHost.
	StreamHost string

	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// Client talks to the QQ Music catalog API.
//
// Every call is a POST of a "comm" block describing the client plus one
// module request under "req_0". When a credential is supplied its user id
// and music key are added to the comm block.
//
// Example usage:
//
//	client := qqmusic.NewClient(httpClient, qqmusic.Options{})
//	url, err := client.TrackURL(ctx, "0039MnYb0qxYhV", model.Quality320, cred)
type Client struct {
	poster     Poster
	apiURL     string
	streamHost string
	logger     *slog.Logger
}

// NewClient creates a catalog client that sends requests through poster.
func NewClient(poster Poster, opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.StreamHost == "" {
		opts.StreamHost = DefaultStreamHost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		poster:     poster,
		apiURL:     opts.APIURL,
		streamHost: opts.StreamHost,
		logger:     opts.Logger,
	}
}

// call performs one module request and returns its "data" object.
//
// A non-zero module code is returned as *APIError together with the module
// result, so callers that treat specific codes as answers (expiry checks)
// can still inspect it.
func (c *Client) call(ctx context.Context, module, method string, param map[string]any, cred *Credential) (gjson.Result, error) {
	payload := map[string]any{
		"comm": c.comm(cred),
		"req_0": map[string]any{
			"module": module,
			"method": method,
			"param":  param,
		},
	}

	header := http.Header{}
	header.Set("Referer", "https://y.qq.com/")

	body, err := c.poster.PostJSON(ctx, c.apiURL, payload, header)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s.%s: %w", module, method, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s.%s", ErrInvalidResponse, module, method)
	}

	res := gjson.ParseBytes(body)
	req := res.Get("req_0")
	if !req.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s.%s: missing req_0 (code %d)", ErrInvalidResponse, module, method, res.Get("code").Int())
	}

	c.logger.Debug("catalog call", "module", module, "method", method, "code", req.Get("code").Int())

	if code := req.Get("code").Int(); code != 0 {
		return req, &APIError{Module: module, Method: method, Code: code}
	}
	return req.Get("data"), nil
}

func (c *Client) comm(cred *Credential) map[string]any {
	comm := map[string]any{
		"ct":         clientType,
		"cv":         clientVersion,
		"v":          clientVersion,
		"tmeAppID":   "qqmusic",
		"format":     "json",
		"inCharset":  "utf-8",
		"outCharset": "utf-8",
		"uin":        cred.UIN(),
	}
	if cred.HasMusicKey() {
		comm["qq"] = cred.UIN()
		comm["authst"] = cred.MusicKey
		comm["tmeLoginType"] = strconv.Itoa(cred.EffectiveLoginType())
	}
	return comm
}
