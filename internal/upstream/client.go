// Package upstream is a client for maccms-style video aggregator APIs.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 8 << 20
	defaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultReferer      = "https://www.google.com/"
	defaultAccept       = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client fetches JSON documents from aggregator endpoints.
// It never panics; every failure is reported as an error wrapping ErrNoData.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration
	insecure     bool
	retry        RetryConfig
	userAgent    string
	searchAction string
	maxBodyBytes int64
	log          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Timeout and TLS options are
// ignored when a custom client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecure = skip
	}
}

// WithRetry sets the retry policy.
func WithRetry(rc RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithUserAgent overrides the browser-like User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSearchAction sets the "ac" parameter used for keyword searches
// ("detail" includes cover images, "list" is lighter).
func WithSearchAction(action string) Option {
	return func(c *Client) {
		if action != "" {
			c.searchAction = action
		}
	}
}

// WithMaxBodyBytes caps the size of a response body.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewClient creates a new upstream client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		timeout:      defaultTimeout,
		retry:        DefaultRetryConfig,
		userAgent:    defaultUserAgent,
		searchAction: "detail",
		maxBodyBytes: defaultMaxBodyBytes,
		log:          logger.With("component", "upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		}
	}
	return c
}

// Fetch issues a GET to apiURL with params merged into its query string and
// returns the raw body. Transient failures are retried.
func (c *Client) Fetch(ctx context.Context, apiURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrNoData, apiURL)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	target := u.String()

	start := time.Now()
	body, err := retryDo(ctx, c.retry, c.log, func() ([]byte, error) {
		return c.do(ctx, target)
	})
	if err != nil {
		c.log.Debug("upstream request failed", "host", u.Host, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrNoData, u.Host, err)
	}
	c.log.Debug("upstream request", "host", u.Host, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", defaultReferer)
	req.Header.Set("Accept", defaultAccept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", c.maxBodyBytes)
	}
	return body, nil
}

// GetJSON fetches apiURL and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, apiURL string, params url.Values, v any) error {
	body, err := c.Fetch(ctx, apiURL, params)
	if err != nil {
		return err
	}
	body = bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM)
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrNoData, err)
	}
	return nil
}

// Search queries api for keyword. An empty list is reported as ErrNoData.
func (c *Client) Search(ctx context.Context, api, keyword string) ([]Item, error) {
	return c.list(ctx, api, url.Values{"ac": {c.searchAction}, "wd": {keyword}})
}

// Detail fetches the full record for id from api.
func (c *Client) Detail(ctx context.Context, api, id string) (*Item, error) {
	items, err := c.list(ctx, api, url.Values{"ac": {"detail"}, "ids": {id}})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (c *Client) list(ctx context.Context, api string, params url.Values) ([]Item, error) {
	var resp Response
	if err := c.GetJSON(ctx, api, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrNoData)
	}
	return resp.List, nil
}
