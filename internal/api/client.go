// Package api issues requests to the writings backend. Responses are handed
// back exactly as net/http produced them: no status checks, no retries, no
// decoding.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const contentTypeJSON = "application/json"

type Client struct {
	origin string
	http   *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Timeouts and transports
// configured on it apply unchanged.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func New(origin string, opts ...Option) (*Client, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return nil, errors.New("api origin cannot be empty")
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse api origin %q: %w", origin, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api origin %q must use http or https", origin)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api origin %q has no host", origin)
	}

	client := &Client{
		origin: origin,
		http:   &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) Origin() string {
	return c.origin
}

// FetchWritings requests the full listing: GET {origin}/.
func (c *Client) FetchWritings(ctx context.Context) (*http.Response, error) {
	return c.get(ctx, "/")
}

// SearchWritings requests GET {origin}/search/{text}.
func (c *Client) SearchWritings(ctx context.Context, text string) (*http.Response, error) {
	return c.get(ctx, "/search/"+PathSegment(text))
}

// FetchProfile requests GET {origin}/users/{username}.
func (c *Client) FetchProfile(ctx context.Context, username string) (*http.Response, error) {
	return c.get(ctx, "/users/"+PathSegment(username))
}

// PublishWriting sends writingData as the body of POST {origin}/publish.
// Byte slices and json.RawMessage are sent as-is; other values are encoded
// as JSON.
func (c *Client) PublishWriting(ctx context.Context, writingData any) (*http.Response, error) {
	body, err := encodeBody(writingData)
	if err != nil {
		return nil, fmt.Errorf("encode writing: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL("/publish"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	return c.http.Do(req)
}

// URL joins the origin with an already-encoded path.
func (c *Client) URL(encodedPath string) string {
	if !strings.HasPrefix(encodedPath, "/") {
		encodedPath = "/" + encodedPath
	}
	return c.origin + encodedPath
}

// PathSegment percent-encodes a value for use as exactly one path segment.
// Every interpolated segment goes through here. Dot segments are encoded
// too, otherwise servers collapse them into the parent path.
func PathSegment(value string) string {
	switch value {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(value)
}

func (c *Client) get(ctx context.Context, encodedPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(encodedPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentTypeJSON)

	return c.http.Do(req)
}

func encodeBody(value any) ([]byte, error) {
	switch v := value.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return json.Marshal(v)
	}
}
