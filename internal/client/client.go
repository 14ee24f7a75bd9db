// Package client talks to the WanAndroid REST API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"go-wanandroid/internal/metrics"
	"go-wanandroid/internal/model"
)

const maxBodyBytes = 8 << 20

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
	Jar       http.CookieJar
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := opts.Transport
	if transport == nil {
		transport = newTransport()
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "go-wanandroid"
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			Jar:       opts.Jar,
		},
		limiter:   limiter,
		userAgent: userAgent,
	}, nil
}

func newTransport() *http.Transport {
	d := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           d.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// BaseURL returns the upstream root every endpoint is resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	form     url.Values
}

// call performs req and decodes the envelope. Only transport, status and
// decode problems are returned as errors; application error codes are left
// in the envelope for the caller to interpret.
func call[T any](ctx context.Context, c *Client, req request) (model.Envelope[T], error) {
	var env model.Envelope[T]

	started := time.Now()
	outcome := "exception"
	defer func() {
		metrics.ObserveUpstream(req.endpoint, outcome, time.Since(started))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return env, fmt.Errorf("%s: wait for rate limiter: %w", req.endpoint, err)
		}
	}

	target := c.base.ResolveReference(&url.URL{Path: req.path})
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.method == http.MethodPost {
		body = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return env, fmt.Errorf("%s: build request: %w", req.endpoint, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.method == http.MethodPost {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		slog.Debug("upstream request failed", "endpoint", req.endpoint, "url", target.Redacted(), "error", err)
		return env, fmt.Errorf("%s: %w", req.endpoint, err)
	}
	defer resp.Body.Close()

	slog.Debug("upstream request",
		"endpoint", req.endpoint,
		"method", req.method,
		"url", target.Redacted(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return env, &StatusError{Endpoint: req.endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return env, fmt.Errorf("%s: decode response: %w", req.endpoint, err)
	}

	if env.OK() {
		outcome = "success"
	} else {
		outcome = "failure"
	}
	return env, nil
}

// StatusError reports a non-2xx HTTP status from the upstream.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected HTTP status %d", e.Endpoint, e.StatusCode)
}
