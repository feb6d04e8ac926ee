package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds the whole manifest request.
	DefaultTimeout = 10 * time.Second

	// maxManifestBytes caps the manifest body (10 MB).
	maxManifestBytes = 10 << 20
)

// ErrUnreachable wraps every manifest fetch failure.
var ErrUnreachable = errors.New("manifest unreachable")

type (
	// Client fetches the manifest from the launcher API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
		timeout    time.Duration
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with the request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL (e.g.
// "http://host:3001/api").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "Hegemonia-Updater/1.0",
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the manifest endpoint.
func (c *Client) URL() string {
	return c.baseURL + "/modpack/manifest"
}

// Fetch performs one request for the manifest. It never retries.
func (c *Client) Fetch(ctx context.Context) (*Manifest, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUnreachable, resp.Status)
	}

	var m Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestBytes)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %w", ErrUnreachable, err)
	}
	if m.Mods == nil {
		return nil, fmt.Errorf("%w: manifest has no mods list", ErrUnreachable)
	}
	return &m, nil
}
