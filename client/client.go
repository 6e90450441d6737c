// Package client is the API client counterpart to the activation flows. It
// wraps every outgoing request with bearer credentials and transparently
// retries authorization failures after refreshing the access token through
// the auth/refresh endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	activation "github.com/goliatone/go-activation"
)

// DefaultRefreshPath is the endpoint the client calls to renew credentials.
const DefaultRefreshPath = "auth/refresh"

// DefaultRetryCeiling bounds how many times a single logical request is
// retried after a refresh. It keeps an unauthorized refresh endpoint from
// turning into an infinite loop.
const DefaultRetryCeiling = 2

// RefreshResponse is the payload the refresh endpoint answers with.
type RefreshResponse struct {
	UserDetail  activation.PublicUserInfo `json:"userDetail"`
	AccessToken string                    `json:"accessToken"`
}

// Client wraps an http.Client with credential state and the reauth retry
// loop. Concurrent requests each carry their own retry counter; the only
// shared mutable state is the Credentials handle.
type Client struct {
	base         string
	http         *http.Client
	creds        *Credentials
	refreshPath  string
	retryCeiling int
	logger       activation.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCredentials shares an existing credential handle with the client.
func WithCredentials(creds *Credentials) Option {
	return func(c *Client) {
		if creds != nil {
			c.creds = creds
		}
	}
}

// WithRefreshPath overrides the refresh endpoint path.
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

// WithRetryCeiling overrides the reauth retry bound.
func WithRetryCeiling(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryCeiling = n
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger activation.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:         strings.TrimRight(baseURL, "/"),
		http:         http.DefaultClient,
		creds:        NewCredentials(),
		refreshPath:  DefaultRefreshPath,
		retryCeiling: DefaultRetryCeiling,
		logger:       nil,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Credentials exposes the shared credential handle.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Do executes a request against the API. On a 401 it refreshes the access
// token and retries the original request, up to the retry ceiling. When the
// refresh call itself fails the client logs out and hands back the original
// unauthorized response.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized || attempt >= c.retryCeiling {
			return resp, nil
		}

		if err := c.refresh(ctx); err != nil {
			c.logError("refresh failed, logging out: %v", err)
			c.creds.Clear()
			return resp, nil
		}

		drain(resp)
	}
}

// DoJSON executes a request with a JSON body and decodes a JSON response
// into out. Non-2xx responses surface as errors after the reauth loop has
// run its course.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = encoded
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { drain(resp) }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request %s %s failed with status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, err
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	if token, ok := c.creds.Token(); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// refresh renews credentials through the refresh endpoint using the same
// underlying transport, outside the retry loop.
func (c *Client) refresh(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, c.refreshPath, nil)
	if err != nil {
		return err
	}
	defer func() { drain(resp) }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh endpoint answered status %d", resp.StatusCode)
	}

	payload := RefreshResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}

	c.creds.Set(payload.UserDetail, payload.AccessToken)
	return nil
}

func (c *Client) url(path string) string {
	return c.base + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) logError(format string, args ...any) {
	if c.logger != nil {
		c.logger.Error(format, args...)
	}
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
