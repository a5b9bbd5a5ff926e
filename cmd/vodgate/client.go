package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/vodgate/internal/analytics"
	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/source"
)

// Client wraps HTTP calls to the vodgate server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new vodgate API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) open(path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := c.httpClient.Get(target)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *Client) get(path string, query url.Values, result any) error {
	resp, err := c.open(path, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(result)
}

// API response types (mirror server types)

type StatusResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Sources int    `json:"sources"`
}

type SearchResponse struct {
	Keyword string               `json:"keyword"`
	Mode    string               `json:"mode"`
	Items   []media.SearchResult `json:"items"`
	Total   int                  `json:"total"`
	Sources int                  `json:"sources"`
	Failed  int                  `json:"failed"`
	Cached  bool                 `json:"cached"`
}

type SourcesResponse struct {
	Sources []source.Source `json:"sources"`
	Total   int             `json:"total"`
}

// Heartbeat pings the server.
func (c *Client) Heartbeat() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/heartbeat", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns server health details.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a keyword search.
func (c *Client) Search(keyword, mode, sourceAPI string) (*SearchResponse, error) {
	q := url.Values{"keyword": {keyword}}
	if mode != "" {
		q.Set("mode", mode)
	}
	if sourceAPI != "" {
		q.Set("source_api", sourceAPI)
	}
	var resp SearchResponse
	if err := c.get("/api/search", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sources lists the server's sources.
func (c *Client) Sources() (*SourcesResponse, error) {
	var resp SourcesResponse
	if err := c.get("/api/sources", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Detail fetches the episode list of one item.
func (c *Client) Detail(api, id string) (*media.VideoDetail, error) {
	q := url.Values{"id": {id}}
	if api != "" {
		q.Set("api", api)
	}
	var resp media.VideoDetail
	if err := c.get("/api/detail", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the visit summary.
func (c *Client) Stats(key string, window int) (*analytics.Summary, error) {
	q := url.Values{"key": {key}}
	if window > 0 {
		q.Set("window", strconv.Itoa(window))
	}
	var resp analytics.Summary
	if err := c.get("/api/admin/stats", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export streams the CSV export into w and returns the bytes copied.
func (c *Client) Export(key string, w io.Writer) (int64, error) {
	resp, err := c.open("/admin/export_csv", url.Values{"key": {key}})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read export: %w", err)
	}
	return n, nil
}
