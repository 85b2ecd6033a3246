// Package backend is the HTTP client for the external execution service.
// Every endpoint decodes into a typed result and validates its shape before
// returning, so callers never dig optional fields out of raw JSON.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pkt.systems/pslog"
)

const (
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 120 * time.Second
	maxBodyBytes   = 16 << 20
)

// Config configures the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     pslog.Logger
	UserAgent  string
}

// Client issues requests against the execution service.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	log       pslog.Logger
	userAgent string
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url must include scheme and host", ErrInvalidConfig)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "uqlabs"
	}
	return &Client{
		base:      base,
		http:      httpClient,
		timeout:   timeout,
		log:       logger.With("backend", base.Host),
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do sends the request and decodes a 2xx body into out. Non-2xx responses
// become *HTTPError, transport failures wrap ErrTransport and undecodable
// bodies wrap ErrMalformedResponse.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With("method", method, "path", path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("backend request failed", "err", err)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn("backend response read failed", "status", resp.StatusCode, "err", err)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	log = log.With("status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, data)
		log.Warn("backend request rejected", "detail", httpErr.Detail)
		return httpErr
	}
	log.Debug("backend request ok", "bytes", len(data))
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
