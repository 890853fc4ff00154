// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the debug server. Fields can't be modified after
// [ListenAndServe] or [Serve] is called.
type Config struct {
	// Addr is the address to listen on, in the form of "host:port".
	Addr string
	// Mux holds additional routes. It may be nil.
	Mux *http.ServeMux
	// Logger is used for server events. If nil, nothing is logged.
	Logger *slog.Logger
	// Health is served at /health. If nil, an empty handler is used.
	Health *HealthHandler
	// Gatherer is served at /metrics, if not nil.
	Gatherer prometheus.Gatherer
	// Logs is served at /debug/log, if not nil.
	Logs http.Handler
}

var errNoAddr = errors.New("c.Addr is empty")

// shutdownTimeout limits how long in-flight requests, like followers of the
// live log, can delay the shutdown.
const shutdownTimeout = 5 * time.Second

// ListenAndServe listens on c.Addr and serves until ctx is canceled.
func ListenAndServe(ctx context.Context, c *Config) error {
	if c.Addr == "" {
		return errNoAddr
	}
	l, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return Serve(ctx, l, c)
}

// Serve serves on l until ctx is canceled, then shuts down gracefully. It
// closes l.
func Serve(ctx context.Context, l net.Listener, c *Config) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.InfoContext(ctx, "debug server listening", "addr", l.Addr().String())

	s := &http.Server{
		Handler:           c.Handler(),
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("debug server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Handler returns the handler serving all routes of c.
func (c *Config) Handler() http.Handler {
	mux := http.NewServeMux()
	if c.Mux != nil {
		mux.Handle("/", c.Mux)
	} else {
		mux.Handle("/", http.NotFoundHandler())
	}
	health := c.Health
	if health == nil {
		health = NewHealthHandler()
	}
	mux.Handle("GET /health", health)
	if c.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{}))
	}
	if c.Logs != nil {
		mux.Handle("GET /debug/log", c.Logs)
	}
	return mux
}
