// Package auth exchanges email/password credentials for session tokens
// against a Supabase-compatible GoTrue endpoint.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	model "github.com/zhouzirui/htmx-playground/backend/internal/model/auth"
)

// ErrInvalidCredentials is returned when the provider rejects the login with a 4xx.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// HTTPStatusError captures non-2xx upstream responses other than credential rejections.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("auth: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the token endpoint.
type Client struct {
	baseURL    string
	publicKey  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient validates the base URL and key and applies options.
func NewClient(baseURL, publicKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("auth: base url must not be empty")
	}
	if strings.TrimSpace(publicKey) == "" {
		return nil, errors.New("auth: public key must not be empty")
	}

	c := &Client{
		baseURL:    baseURL,
		publicKey:  publicKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Exchange performs a password grant and returns the issued tokens.
func (c *Client) Exchange(ctx context.Context, creds model.Credentials) (*model.Tokens, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("auth: encode credentials: %w", err)
	}

	url := c.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("apikey", c.publicKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: token request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 400 && res.StatusCode < 500 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, ErrInvalidCredentials
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	var tokens model.Tokens
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("auth: decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, errors.New("auth: token response missing access_token")
	}
	return &tokens, nil
}
