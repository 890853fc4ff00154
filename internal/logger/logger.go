// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger sets up structured logging for the bot and defines a
// thread-safe io.Writer that buffers log lines in a ring buffer and allows
// them to be streamed through an HTTP endpoint.
package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// LevelCritical is the severity of conditions that stop the bot and need
// manual intervention, like revoked credentials.
const LevelCritical = slog.LevelError + 4

const timeFormat = "2006-01-02 15:04:05"

// Logger is a [slog.Logger] with an adjustable level.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
}

// New returns a Logger writing human-readable, timestamped lines to w.
func New(w io.Writer) *Logger {
	lvl := new(slog.LevelVar)
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceAttr,
	})
	return &Logger{Logger: slog.New(h), Level: lvl}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(timeFormat))
		}
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(lvl))
		}
	}
	return a
}

// LevelName returns the name printed for lvl.
func LevelName(lvl slog.Level) string {
	switch {
	case lvl >= LevelCritical:
		return "CRITICAL"
	case lvl >= slog.LevelError:
		return "ERROR"
	case lvl >= slog.LevelWarn:
		return "WARNING"
	case lvl >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Critical logs msg at [LevelCritical].
func Critical(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	l.Log(ctx, LevelCritical, msg, args...)
}

type ctxKey struct{}

// Put returns a copy of ctx carrying l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Get returns the Logger stored in ctx by [Put]. If there is none, it returns
// a Logger wrapping [slog.Default].
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{Logger: slog.Default(), Level: new(slog.LevelVar)}
}
