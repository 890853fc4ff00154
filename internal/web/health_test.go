// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/bollybot/internal/testutil"
)

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		checks     map[string]HealthFunc
		want       HealthResponse
		wantStatus int
	}{
		"no checks": {
			checks:     map[string]HealthFunc{},
			want:       HealthResponse{OK: true, Checks: map[string]CheckResponse{}},
			wantStatus: http.StatusOK,
		},
		"running": {
			checks: map[string]HealthFunc{
				"bot": func() (string, bool) { return "running", true },
			},
			want: HealthResponse{OK: true, Checks: map[string]CheckResponse{
				"bot": {Status: "running", OK: true},
			}},
			wantStatus: http.StatusOK,
		},
		"halted": {
			checks: map[string]HealthFunc{
				"bot":     func() (string, bool) { return "bot halted: unauthorized", false },
				"history": func() (string, bool) { return "ok", true },
			},
			want: HealthResponse{OK: false, Checks: map[string]CheckResponse{
				"bot":     {Status: "bot halted: unauthorized", OK: false},
				"history": {Status: "ok", OK: true},
			}},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler()
			for name, f := range tc.checks {
				h.RegisterFunc(name, f)
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
			testutil.AssertEqual(t, testutil.UnmarshalJSON[HealthResponse](t, w.Body.Bytes()), tc.want)
		})
	}
}

func TestHealthHandlerDuplicate(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler()
	h.RegisterFunc("bot", func() (string, bool) { return "ok", true })

	defer func() {
		if recover() == nil {
			t.Fatal("registering a duplicate check must panic")
		}
	}()
	h.RegisterFunc("bot", func() (string, bool) { return "ok", true })
}
