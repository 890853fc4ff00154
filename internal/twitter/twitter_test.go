// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/bollybot/internal/testutil"
)

var testCreds = Credentials{
	ConsumerKey:    "consumer-key",
	ConsumerSecret: "consumer-secret",
	AccessToken:    "access-token",
	AccessSecret:   "access-secret",
}

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(testCreds, WithEndpoint(ts.URL+"/2/"), WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestPublish(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotAuth string
		gotBody createPostRequest
	)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data": {"id": "1445880548472328192", "text": "Bhai ka scene bawal hai"}}`)
	})

	if err := c.Publish(context.Background(), "Bhai ka scene bawal hai"); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, gotPath, "POST /2/tweets")
	testutil.AssertEqual(t, gotBody.Text, "Bhai ka scene bawal hai")
	for _, want := range []string{"OAuth ", `oauth_consumer_key="consumer-key"`, `oauth_token="access-token"`, "oauth_signature="} {
		if !strings.Contains(gotAuth, want) {
			t.Errorf("Authorization header must contain %q, got %q", want, gotAuth)
		}
	}
	if strings.Contains(gotAuth, "secret") {
		t.Errorf("Authorization header leaks a secret: %q", gotAuth)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		status           int
		wantRateLimited  bool
		wantUnauthorized bool
	}{
		"rate limited": {
			status:          http.StatusTooManyRequests,
			wantRateLimited: true,
		},
		"unauthorized": {
			status:           http.StatusUnauthorized,
			wantUnauthorized: true,
		},
		"forbidden": {
			status: http.StatusForbidden,
		},
		"server error": {
			status: http.StatusInternalServerError,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"title": "error", "detail": "access-secret"}`)
			})

			err := c.Publish(context.Background(), "hello")
			if err == nil {
				t.Fatal("want error")
			}
			testutil.AssertEqual(t, errors.Is(err, ErrRateLimited), tc.wantRateLimited)
			testutil.AssertEqual(t, errors.Is(err, ErrUnauthorized), tc.wantUnauthorized)
			if strings.Contains(err.Error(), "access-secret") {
				t.Fatalf("error must be scrubbed, got %q", err)
			}
		})
	}
}

func TestPublishNetworkError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c, err := New(testCreds, WithEndpoint(ts.URL))
	if err != nil {
		t.Fatal(err)
	}
	err = c.Publish(context.Background(), "hello")
	if err == nil {
		t.Fatal("want error")
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("network errors must be unclassified, got %v", err)
	}
}

func TestNewMissingCredentials(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		creds    Credentials
		wantText string
	}{
		"all missing": {
			creds:    Credentials{},
			wantText: "consumer key, consumer secret, access token, access secret",
		},
		"access secret missing": {
			creds: Credentials{
				ConsumerKey:    "a",
				ConsumerSecret: "b",
				AccessToken:    "c",
			},
			wantText: "missing access secret",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.creds)
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("want %v, got %v", ErrUnauthorized, err)
			}
			if !strings.Contains(err.Error(), tc.wantText) {
				t.Fatalf("error %q must mention %q", err, tc.wantText)
			}
		})
	}
}

func TestPublishTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	hc := ts.Client()
	hc.Timeout = 50 * time.Millisecond
	c, err := New(testCreds, WithEndpoint(ts.URL+"/2"), WithHTTPClient(hc))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, c.httpc.Timeout, hc.Timeout)

	done := make(chan error, 1)
	go func() { done <- c.Publish(context.Background(), "Dhamaka!") }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("want timeout error, got nil")
		}
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized) {
			t.Fatalf("timeout must not be classified, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Publish didn't respect the client timeout")
	}
}
