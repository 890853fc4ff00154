// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package twitter publishes posts through the X (Twitter) API v2 on behalf of
// a single user authenticated with OAuth 1.0a.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/bollybot/internal/request"

	"github.com/dghubble/oauth1"
)

// APIEndpoint is the base URL of the X API v2.
const APIEndpoint = "https://api.twitter.com/2"

var (
	// ErrRateLimited is returned when the API rejects a request because the
	// caller exceeded its quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned when the credentials are missing, invalid
	// or revoked.
	ErrUnauthorized = errors.New("unauthorized")
)

// Credentials are the OAuth 1.0a keys of the app and the posting user.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Validate checks that all credentials are present.
func (c Credentials) Validate() error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"consumer key", c.ConsumerKey},
		{"consumer secret", c.ConsumerSecret},
		{"access token", c.AccessToken},
		{"access secret", c.AccessSecret},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrUnauthorized, strings.Join(missing, ", "))
	}
	return nil
}

// Client publishes posts.
type Client struct {
	endpoint string
	base     *http.Client
	httpc    *http.Client
	scrubber *strings.Replacer
}

// Option configures a [Client].
type Option func(*Client)

// WithEndpoint overrides [APIEndpoint].
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets the HTTP client that signed requests are sent through.
// Its transport and timeout are used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// New returns a Client authenticated with creds. It fails with an error
// wrapping [ErrUnauthorized] if any credential is missing.
func New(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: APIEndpoint,
		base:     request.DefaultClient,
		scrubber: strings.NewReplacer(
			creds.ConsumerSecret, "[EXPUNGED]",
			creds.AccessSecret, "[EXPUNGED]",
		),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	tok := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, c.base)
	// Client keeps only the transport of the base client.
	c.httpc = cfg.Client(ctx, tok)
	c.httpc.Timeout = c.base.Timeout

	return c, nil
}

// https://docs.x.com/x-api/posts/create-post
type createPostRequest struct {
	Text string `json:"text"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts text. Errors caused by rate limiting wrap [ErrRateLimited],
// errors caused by bad credentials wrap [ErrUnauthorized]. Publish doesn't
// retry.
func (c *Client) Publish(ctx context.Context, text string) error {
	_, err := request.Make[createPostResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        c.endpoint + "/tweets",
		Body:       createPostRequest{Text: text},
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	if err == nil {
		return nil
	}

	var statusErr *request.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("publishing post: %w", err)
}
