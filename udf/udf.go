// Copyright 2023 Eikon Go Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package udf implements the request/response protocol layer of the local
// data proxy: client configuration, the JSON request envelope, response
// classification and proxy port discovery. The per-endpoint wrappers
// (timeseries, symbology, news, grid) all send their payloads through this
// package.
package udf

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the template of the proxy endpoint URL, parameterized by the
// resolved port number. It may be overwritten in tests before creating a new
// client.
var URL = "http://localhost:%d/api/v1/data"

// DefaultTimeout bounds a single request against the proxy.
const DefaultTimeout = 30 * time.Second

// Client holds the per-session configuration for talking to the proxy: the
// application id, the resolved endpoint URL and the request timeout. It is
// constructed once by NewClient and holds no per-call state, so a single
// Client is safe to share between concurrent calls.
type Client struct {
	url     string
	appID   string
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithPort skips port discovery and uses the given proxy port.
func WithPort(port int) Option {
	return func(c *Client) { c.url = proxyURL(port) }
}

// WithURL skips port discovery and uses the given endpoint URL verbatim.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// NewClient creates a client for the given application id. Unless the
// endpoint is fixed with WithPort or WithURL, it resolves the proxy port
// eagerly and fails with a TransportUnreachable error when no running proxy
// can be found. There is no lazily initialized global state: a failed
// resolution is a regular error at construction time.
func NewClient(ctx context.Context, appID string, opts ...Option) (*Client, error) {
	if appID == "" {
		return nil, errors.Reason("application id must not be empty")
	}
	c := &Client{
		appID:   appID,
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.url == "" {
		port, err := ResolvePort(ctx, c.appID, c.http)
		if err != nil {
			return nil, NewError(TransportUnreachable, 0,
				"no proxy endpoint available: %s", err.Error())
		}
		c.url = proxyURL(port)
	}
	return c, nil
}

// AppID returns the application id the client was created with.
func (c *Client) AppID() string { return c.appID }

// URL returns the resolved endpoint URL.
func (c *Client) URL() string { return c.url }

// UseClient injects the client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// NormalizeSymbols canonicalizes instrument identifiers for transmission:
// an all-lowercase identifier is upper-cased, mixed-case identifiers are
// kept as is. The input slice is not modified.
func NormalizeSymbols(symbols []string) []string {
	res := make([]string, len(symbols))
	for i, s := range symbols {
		s = strings.TrimSpace(s)
		if s == strings.ToLower(s) {
			s = strings.ToUpper(s)
		}
		res[i] = s
	}
	return res
}
