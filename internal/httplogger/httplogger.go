// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides an [http.RoundTripper] that logs outgoing
// requests and their outcome at DEBUG level.
package httplogger

import (
	"log/slog"
	"net/http"
	"time"
)

// New returns a RoundTripper that sends requests through t and logs them to
// logger. A nil t means [http.DefaultTransport].
func New(t http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{
		transport: t,
		logger:    logger,
		now:       time.Now,
	}
}

type loggingTransport struct {
	transport http.RoundTripper
	logger    *slog.Logger
	now       func() time.Time
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if !t.logger.Enabled(ctx, slog.LevelDebug) {
		return t.transport.RoundTrip(r)
	}

	// Query strings may carry API keys.
	u := *r.URL
	u.RawQuery = ""

	start := t.now()
	resp, err := t.transport.RoundTrip(r)
	attrs := []any{
		"method", r.Method,
		"url", u.String(),
		"duration", t.now().Sub(start),
	}
	if err != nil {
		t.logger.DebugContext(ctx, "HTTP request failed", append(attrs, "error", err)...)
		return resp, err
	}
	t.logger.DebugContext(ctx, "HTTP request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
