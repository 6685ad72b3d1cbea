// Package cms runs GROQ queries against the Sanity HTTP query API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	model "github.com/zhouzirui/htmx-playground/backend/internal/model/cms"
)

// ItemsQuery selects every item document.
const ItemsQuery = "*[_type == 'item']"

// ErrMalformedResponse is returned when the body is not an object carrying a result array.
var ErrMalformedResponse = errors.New("cms: malformed query response")

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("cms: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Config selects the project and dataset to query.
type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	UseCDN     bool
	APIVersion string
}

// Client is a read-only query client.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the project host derived from the config.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a client for cfg. ProjectID is required; dataset and API
// version default to "production" and "v2021-10-21".
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.ProjectID = strings.TrimSpace(cfg.ProjectID)
	if cfg.ProjectID == "" {
		return nil, errors.New("cms: project id must not be empty")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v2021-10-21"
	}

	host := "api"
	if cfg.UseCDN {
		host = "apicdn"
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type queryResponse struct {
	Result *json.RawMessage `json:"result"`
}

// Query runs a GROQ query and decodes every result element as an Item.
// A single undecodable element fails the whole query.
func (c *Client) Query(ctx context.Context, groq string) ([]model.Item, error) {
	endpoint := fmt.Sprintf("%s/%s/data/query/%s?query=%s",
		c.baseURL, c.cfg.APIVersion, url.PathEscape(c.cfg.Dataset), url.QueryEscape(groq))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cms: build request: %w", err)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms: query request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	var envelope queryResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Result == nil {
		return nil, fmt.Errorf("%w: result field missing", ErrMalformedResponse)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(*envelope.Result, &raw); err != nil {
		return nil, fmt.Errorf("%w: result is not an array", ErrMalformedResponse)
	}

	items := make([]model.Item, 0, len(raw))
	for i, elem := range raw {
		var item model.Item
		if err := json.Unmarshal(elem, &item); err != nil {
			return nil, fmt.Errorf("cms: decode item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Summaries projects at most limit items to their names.
func Summaries(items []model.Item, limit int) []model.Summary {
	if limit > len(items) {
		limit = len(items)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]model.Summary, 0, limit)
	for _, item := range items[:limit] {
		out = append(out, model.Summary{Name: item.Name})
	}
	return out
}
