// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package request_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/bollybot/internal/request"
	"go.astrophena.name/bollybot/internal/testutil"
)

func TestMake(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/created" && r.Method == http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message": "created"}`))
		case r.URL.Path == "/test" && r.Method == http.MethodPost:
			if r.Header.Get("Content-Type") != "application/json" {
				http.Error(w, "want JSON", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message": "success"}`))
		default:
			http.Error(w, "invalid request hello", http.StatusBadRequest)
		}
	}))
	defer ts.Close()

	cases := map[string]struct {
		params  request.Params
		want    string
		wantErr bool
	}{
		"successful request": {
			params: request.Params{
				Method: http.MethodPost,
				URL:    ts.URL + "/test",
				Body:   map[string]string{"key": "value"},
			},
			want: `{"message": "success"}`,
		},
		"201 is a success": {
			params: request.Params{
				Method: http.MethodPost,
				URL:    ts.URL + "/created",
				Body:   map[string]string{"text": "hi"},
			},
			want: `{"message": "created"}`,
		},
		"custom HTTP client": {
			params: request.Params{
				Method:     http.MethodPost,
				URL:        ts.URL + "/test",
				HTTPClient: &http.Client{},
				Body:       map[string]string{"key": "value"},
			},
			want: `{"message": "success"}`,
		},
		"invalid request method": {
			params: request.Params{
				Method: http.MethodGet,
				URL:    ts.URL + "/test",
			},
			wantErr: true,
		},
		"invalid value for JSON": {
			params: request.Params{
				Method: http.MethodPost,
				URL:    ts.URL + "/test",
				Body:   make(chan int),
			},
			wantErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := request.Make[json.RawMessage](context.Background(), tc.params)
			if err != nil {
				if !tc.wantErr {
					t.Fatalf("Make() error = %v", err)
				}
				return
			}
			if tc.wantErr {
				t.Fatal("Make() expected error, got none")
			}
			testutil.AssertEqual(t, string(resp), tc.want)
		})
	}
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title": "Too Many Requests"}`, http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := request.Make[map[string]any](context.Background(), request.Params{
		Method: http.MethodPost,
		URL:    ts.URL + "/tweets?token=hello",
		Body:   map[string]string{"text": "hi"},
		Scrubber: strings.NewReplacer(
			"hello", "[EXPUNGED]",
		),
	})

	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want *request.StatusError, got %T: %v", err, err)
	}
	testutil.AssertEqual(t, statusErr.StatusCode, http.StatusTooManyRequests)
	if strings.Contains(err.Error(), "hello") {
		t.Fatalf("error must be scrubbed, got %q", err)
	}
	if !strings.Contains(err.Error(), "[EXPUNGED]") {
		t.Fatalf("error must contain scrubbed token, got %q", err)
	}
}

func TestUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	if _, err := request.Make[map[string]any](context.Background(), request.Params{
		Method: http.MethodGet,
		URL:    ts.URL,
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "bleep-bloop") {
		t.Fatalf("unexpected User-Agent: %q", got)
	}
}
