// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"maps"
	"net/http"

	"go.astrophena.name/bollybot/internal/util/syncx"
)

// HealthHandler reports the health of the running bot at /health.
type HealthHandler struct{ checks *syncx.Protected[checksMap] }

type checksMap = map[string]HealthFunc

// HealthFunc reports the state of a particular subsystem. It must be safe for
// concurrent use.
type HealthFunc func() (status string, ok bool)

// NewHealthHandler returns a HealthHandler without checks.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: syncx.Protect(make(checksMap))}
}

// RegisterFunc registers a check by name. It panics if the name is taken.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.checks.Access(func(checks checksMap) {
		if _, dup := checks[name]; dup {
			panic("web: health check " + name + " already registered")
		}
		checks[name] = f
	})
}

// HealthResponse is the response of the /health endpoint.
type HealthResponse struct {
	OK     bool                     `json:"ok"`
	Checks map[string]CheckResponse `json:"checks"`
}

// CheckResponse is the result of an individual check.
type CheckResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var checks checksMap
	h.checks.RAccess(func(m checksMap) { checks = maps.Clone(m) })

	hr := &HealthResponse{OK: true, Checks: make(map[string]CheckResponse)}
	for name, f := range checks {
		status, ok := f()
		hr.OK = hr.OK && ok
		hr.Checks[name] = CheckResponse{Status: status, OK: ok}
	}

	code := http.StatusOK
	if !hr.OK {
		code = http.StatusInternalServerError
	}
	RespondJSON(w, code, hr)
}
