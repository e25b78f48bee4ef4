// Package fetch provides the throttled, retrying HTTP client and the page
// collectors every API source is built on. All outbound traffic goes through
// one Client so request spacing holds across sources sharing a host.
package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/logger"
	"github.com/devpulse/devpulse/internal/types"
)

const bodySnippetLen = 200

type Request struct {
	Method string
	URL    string
	Query  url.Values
	Body   []byte
	Header http.Header
}

type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// ClientConfig holds the knobs for NewClient. Zero values mean defaults,
// except Delay, where zero genuinely means no throttle.
type ClientConfig struct {
	// Delay is the minimum gap between a response completing and the next
	// request going out.
	Delay      time.Duration
	Retry      RetryPolicy
	Header     http.Header
	HTTPClient *http.Client

	// Now and Sleep exist so throttle and backoff are testable without
	// real waiting.
	Now   func() time.Time
	Sleep func(context.Context, time.Duration) error
}

type Client struct {
	httpClient *http.Client
	delay      time.Duration
	retry      RetryPolicy
	header     http.Header
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
	lastReturn time.Time
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		httpClient: cfg.HTTPClient,
		delay:      cfg.Delay,
		retry:      cfg.Retry,
		header:     cfg.Header,
		now:        cfg.Now,
		sleep:      cfg.Sleep,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.retry == (RetryPolicy{}) {
		c.retry = DefaultRetryPolicy()
	}
	if c.header == nil {
		c.header = make(http.Header)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = waitWithContext
	}
	return c
}

// Do performs one logical request: throttle, send, and retry on HTTP 429 or
// a transport failure. 401/403 and other non-2xx statuses return typed
// errors immediately.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	for retry := 0; ; retry++ {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		resp, transportErr := c.roundTrip(ctx, req)
		c.lastReturn = c.now()

		if transportErr != nil {
			if ctx.Err() != nil {
				return nil, transportErr
			}
			if retry >= c.retry.MaxRetries {
				return nil, fmt.Errorf("giving up after %d attempts: %w", retry+1, transportErr)
			}
			wait := c.retry.Delay(retry)
			logger.Warn("request failed, retrying", "url", req.URL, "wait", wait, "error", transportErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if resp.Status == http.StatusTooManyRequests {
			if retry >= c.retry.MaxRetries {
				return nil, types.RateLimitError{Attempts: retry + 1, URL: req.URL}
			}
			wait := c.retry.Delay(retry)
			if ra := retryAfter(resp.Header); ra > 0 {
				wait = ra
			}
			logger.Warn("rate limited, backing off", "url", req.URL, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden:
			return nil, types.AuthError{Status: resp.Status, URL: req.URL}
		case resp.Status < 200 || resp.Status > 299:
			return nil, types.APIError{Status: resp.Status, URL: req.URL, Snippet: snippet(resp.Body)}
		}
		return resp, nil
	}
}

// throttle blocks until the configured gap since the previous response has
// passed. The first request never waits.
func (c *Client) throttle(ctx context.Context) error {
	if c.delay <= 0 || c.lastReturn.IsZero() {
		return ctx.Err()
	}
	elapsed := c.now().Sub(c.lastReturn)
	if wait := c.delay - elapsed; wait > 0 {
		logger.Debug("throttling", "wait", wait)
		return c.sleep(ctx, wait)
	}
	return ctx.Err()
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	u := req.URL
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", req.URL, err)
	}
	for k, vals := range c.header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("request", "method", req.Method, "url", req.URL)
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL, err)
	}
	return &Response{Status: httpResp.StatusCode, Body: respBody, Header: httpResp.Header}, nil
}

// retryAfter reads an integer-seconds Retry-After header, 0 when absent or
// unparseable.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if len(s) > bodySnippetLen {
		return s[:bodySnippetLen] + "..."
	}
	return s
}

// BasicAuth renders an Authorization header value from credentials.
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// waitWithContext sleeps for d unless the context ends first.
func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
