// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"go.astrophena.name/bollybot/internal/bot"
	"go.astrophena.name/bollybot/internal/cli"
	"go.astrophena.name/bollybot/internal/cli/envflag"
	"go.astrophena.name/bollybot/internal/compose"
	"go.astrophena.name/bollybot/internal/feed"
	"go.astrophena.name/bollybot/internal/filelock"
	"go.astrophena.name/bollybot/internal/history"
	"go.astrophena.name/bollybot/internal/httplogger"
	"go.astrophena.name/bollybot/internal/logger"
	"go.astrophena.name/bollybot/internal/request"
	"go.astrophena.name/bollybot/internal/systemd"
	"go.astrophena.name/bollybot/internal/twitter"
	"go.astrophena.name/bollybot/internal/web"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const logBacklog = 500

func main() {
	// A missing .env is fine; credentials can come from the environment.
	_ = godotenv.Load()
	cli.Main(new(app))
}

type app struct {
	// configuration, set by Flags
	historyFile *string
	logFile     *string
	feedURL     *string
	selection   *string
	top         *int
	model       *string
	fallback    *string
	rulesFile   *string
	debugAddr   *string
	verbose     *bool
	once        bool

	// for tests
	twitterEndpoint string
	newWriter       func(ctx context.Context, apiKey, model string, opts ...compose.Option) (writer, error)
}

// writer is a [bot.Writer] holding resources.
type writer interface {
	bot.Writer
	io.Closer
}

func (a *app) Flags(ctx context.Context, fs *flag.FlagSet) {
	getenv := cli.GetEnv(ctx).Getenv
	a.historyFile = envflag.Value("history", "HISTORY_FILE", "posted_history.json", "Path to the `file` with recently posted headlines.", fs, getenv)
	a.logFile = envflag.Value("log-file", "LOG_FILE", "bot_log.txt", "Append logs to `file` in addition to stdout.", fs, getenv)
	a.feedURL = envflag.Value("feed", "FEED_URL", feed.DefaultURL, "RSS or Atom feed `URL` to take stories from.", fs, getenv)
	a.selection = envflag.Value("select", "FEED_SELECT", feed.Freshest.String(), "How to pick a story: freshest or random (among the -top newest).", fs, getenv)
	a.top = envflag.Value("top", "FEED_TOP", feed.DefaultTop, "Number of newest entries random selection picks from.", fs, getenv)
	a.model = envflag.Value("model", "GEMINI_MODEL", compose.DefaultModel, "Gemini `model` name.", fs, getenv)
	a.fallback = envflag.Value("keyword-fallback", "KEYWORD_FALLBACK", "", "Validate generated keywords and use these when they are malformed. Empty disables validation.", fs, getenv)
	a.rulesFile = envflag.Value("rules", "RULES_FILE", "", "Starlark `file` with block_rule and keep_rule feed filters.", fs, getenv)
	a.debugAddr = envflag.Value("debug-addr", "DEBUG_ADDR", "", "Serve health, metrics and live logs on `address`.", fs, getenv)
	a.verbose = envflag.Value("v", "VERBOSE", false, "Log at DEBUG level, including every HTTP request.", fs, getenv)
	fs.BoolVar(&a.once, "once", false, "Run one cycle and exit.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrInvalidArgs, env.Args)
	}
	sel, err := feed.ParseSelection(*a.selection)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrInvalidArgs, err)
	}
	if *a.top <= 0 {
		return fmt.Errorf("%w: -top must be positive", cli.ErrInvalidArgs)
	}

	logFile, err := os.OpenFile(*a.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logs := logger.NewStreamer(logBacklog)
	l := logger.New(io.MultiWriter(env.Stdout, logFile, logs))
	if *a.verbose {
		l.Level.Set(slog.LevelDebug)
	}
	ctx = logger.Put(ctx, l)

	httpc := &http.Client{
		Timeout:   request.DefaultClient.Timeout,
		Transport: httplogger.New(nil, l.Logger),
	}

	// The publisher is built once; bad credentials stop the bot right away.
	publisher, err := twitter.New(twitter.Credentials{
		ConsumerKey:    env.Getenv("TWITTER_API_KEY"),
		ConsumerSecret: env.Getenv("TWITTER_API_SECRET"),
		AccessToken:    env.Getenv("ACCESS_TOKEN"),
		AccessSecret:   env.Getenv("ACCESS_SECRET"),
	}, a.twitterOptions(httpc)...)
	if err != nil {
		logger.Critical(ctx, l.Logger, "failed to set up the X client, check credentials", "error", err)
		return err
	}

	lockPath := *a.historyFile + ".lock"
	lock, err := filelock.Acquire(lockPath)
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		return fmt.Errorf("another bollybot (pid %d) uses %s: %w", filelock.Holder(lockPath), *a.historyFile, err)
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	newWriter := a.newWriter
	if newWriter == nil {
		newWriter = newComposer
	}
	var writerOpts []compose.Option
	writerOpts = append(writerOpts, compose.WithLogger(l.Logger))
	if *a.fallback != "" {
		writerOpts = append(writerOpts, compose.WithKeywordFallback(*a.fallback))
	}
	w, err := newWriter(ctx, env.Getenv("GEMINI_API_KEY"), *a.model, writerOpts...)
	if err != nil {
		logger.Critical(ctx, l.Logger, "failed to set up Gemini", "error", err)
		return err
	}
	defer w.Close()

	sourceOpts := []feed.Option{
		feed.WithLogger(l.Logger),
		feed.WithSelection(sel, *a.top),
		feed.WithHTTPClient(httpc),
	}
	if *a.rulesFile != "" {
		rules, err := feed.LoadRules(*a.rulesFile, l.Logger)
		if err != nil {
			return err
		}
		sourceOpts = append(sourceOpts, feed.WithRules(rules))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b, err := bot.New(bot.DefaultConfig(), bot.Deps{
		History:   history.NewStore(*a.historyFile, l.Logger),
		Source:    feed.NewSource(*a.feedURL, sourceOpts...),
		Writer:    w,
		Publisher: publisher,
		Metrics:   bot.NewMetrics(reg),
	})
	if err != nil {
		return err
	}

	if a.once {
		res, err := b.Cycle(ctx)
		if err != nil {
			if errors.Is(err, twitter.ErrUnauthorized) {
				logger.Critical(ctx, l.Logger, "credentials rejected", "error", err)
			}
			return err
		}
		l.InfoContext(ctx, "cycle finished", "outcome", res.Outcome, "title", res.Item.ID)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if *a.debugAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := web.ListenAndServe(ctx, debugServer(*a.debugAddr, b, reg, logs, l)); err != nil {
				l.ErrorContext(ctx, "debug server failed", "error", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		systemd.WatchdogLoop(ctx, env.Getenv, func() bool { return b.Healthy() == nil })
	}()
	systemd.Notify(ctx, env.Getenv, systemd.Ready)

	err = b.Run(ctx)
	systemd.Notify(ctx, env.Getenv, systemd.Stopping)
	cancel()
	wg.Wait()
	return err
}

func (a *app) twitterOptions(httpc *http.Client) []twitter.Option {
	opts := []twitter.Option{twitter.WithHTTPClient(httpc)}
	if a.twitterEndpoint != "" {
		opts = append(opts, twitter.WithEndpoint(a.twitterEndpoint))
	}
	return opts
}

func newComposer(ctx context.Context, apiKey, model string, opts ...compose.Option) (writer, error) {
	c, err := compose.New(ctx, apiKey, model, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func debugServer(addr string, b *bot.Bot, reg *prometheus.Registry, logs http.Handler, l *logger.Logger) *web.Config {
	health := web.NewHealthHandler()
	health.RegisterFunc("bot", func() (string, bool) {
		if err := b.Healthy(); err != nil {
			return err.Error(), false
		}
		return string(b.Status().State), true
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/status", func(w http.ResponseWriter, r *http.Request) {
		web.RespondJSON(w, http.StatusOK, b.Status())
	})

	return &web.Config{
		Addr:     addr,
		Mux:      mux,
		Logger:   l.Logger,
		Health:   health,
		Gatherer: reg,
		Logs:     logs,
	}
}
