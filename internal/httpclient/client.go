// Package httpclient provides the retrying, logged HTTP client used for all
// outgoing calls to the DANDI Archive API and to the Zarr manifest tree.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// UserAgent is sent on every outgoing request.
const UserAgent = "dandidav-go/0.1 (+https://github.com/dandidav/dandidav-go)"

// Client is an HTTP client that retries transient failures with exponential
// backoff and logs every request at debug level.
type Client struct {
	hc     *http.Client
	log    zerolog.Logger
	maxTry uint64
}

// New builds a Client. log receives one debug-level event per outgoing
// request and one per retry.
func New(log zerolog.Logger) *Client {
	return &Client{
		hc:     &http.Client{Timeout: 60 * time.Second},
		log:    log,
		maxTry: 5, // the initial attempt plus four retries
	}
}

// NotFoundError indicates that a request returned 404.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("no such resource: %s", e.URL) }

// StatusError indicates that a request returned a non-2xx, non-404 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

// SendError wraps a lower-level failure (network error, context
// cancellation, ...) that occurred while trying to send a request.
type SendError struct {
	URL string
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("failed to make request to %s: %v", e.URL, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// DeserializeError wraps a failure to decode a response body as JSON.
type DeserializeError struct {
	URL string
	Err error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("failed to deserialize response body from %s: %v", e.URL, e.Err)
}
func (e *DeserializeError) Unwrap() error { return e.Err }

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

// do sends req, retrying network errors and 408/429/5xx responses up to four
// times with base-2 exponential backoff (1s, 2s, 4s, 8s). The returned
// response's body is still open; the caller must close it.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	u := req.URL.String()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		c.log.Debug().Str("url", u).Str("method", req.Method).Int("attempt", attempt).Msg("making HTTP request")
		r, err := c.hc.Do(req)
		if err != nil {
			c.log.Debug().Str("url", u).Err(err).Msg("failed to receive response")
			return err
		}
		if isRetryableStatus(r.StatusCode) && uint64(attempt) < c.maxTry {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return fmt.Errorf("retryable status %d", r.StatusCode)
		}
		c.log.Debug().Str("url", u).Int("status", r.StatusCode).Msg("response received")
		resp = r
		return nil
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(bo, c.maxTry-1))
	if err != nil {
		return nil, &SendError{URL: u, Err: err}
	}
	return resp, nil
}

// Request issues method against url with the given context and returns the
// response only if its status was 2xx. A 404 is mapped to NotFoundError and
// any other non-2xx status to StatusError.
func (c *Client) Request(ctx context.Context, method string, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, &SendError{URL: target.String(), Err: err}
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, &NotFoundError{URL: target.String()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: target.String(), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, target *url.URL) (*http.Response, error) {
	return c.Request(ctx, http.MethodHead, target)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, target *url.URL) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, target)
}

// GetJSON performs a GET request and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, target *url.URL, v any) error {
	resp, err := c.Get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DeserializeError{URL: target.String(), Err: err}
	}
	return nil
}

// JoinPath appends percent-encoded path segments to base, returning a new
// URL. Segments are encoded individually so that characters such as "/" or
// "?" occurring within a single logical segment (e.g. an asset path used as
// a query value should use JoinPathSlashed's query-string sibling instead)
// cannot be misinterpreted as additional path structure.
func JoinPath(base *url.URL, segments ...string) *url.URL {
	u := *base
	raw := strings.TrimSuffix(u.EscapedPath(), "/")
	for _, s := range segments {
		raw += "/" + url.PathEscape(s)
	}
	u.Path, _ = url.PathUnescape(raw)
	u.RawPath = raw
	return &u
}

// JoinPathSlashed is like JoinPath but ensures the result ends in "/", for
// endpoints that 404 without a trailing slash.
func JoinPathSlashed(base *url.URL, segments ...string) *url.URL {
	u := JoinPath(base, segments...)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return u
}
