// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli provides the startup plumbing of the bot binary: flag parsing,
// version and help output, and an environment carried in the context so tests
// can run the program without touching the real process state.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.astrophena.name/bollybot/internal/util/syncx"
	"go.astrophena.name/bollybot/internal/version"
)

// Main runs app with the operating system environment. It cancels the
// context on SIGINT or SIGTERM, prints the returned error to stderr and exits
// with status 1 if it isn't nil.
func Main(app App) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := Run(WithEnv(ctx, OSEnv()), app)
	if err == nil {
		return
	}
	if isPrintableError(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

type unprintableError struct{ err error }

func (e *unprintableError) Error() string { return e.err.Error() }
func (e *unprintableError) Unwrap() error { return e.err }

func isPrintableError(err error) bool {
	if errors.Is(err, flag.ErrHelp) {
		return false
	}
	var ue *unprintableError
	return !errors.As(err, &ue)
}

// ErrExitVersion is returned by [Run] after the version was printed.
var ErrExitVersion = &unprintableError{errors.New("version flag exit")}

// ErrInvalidArgs indicates that the command-line arguments or environment
// variables are invalid. Wrap it with a message explaining what is wrong:
//
//	return fmt.Errorf("%w: unknown selection %q", cli.ErrInvalidArgs, s)
var ErrInvalidArgs = errors.New("invalid arguments")

// App is a command-line application.
type App interface {
	// Run runs the application. The environment is available with [GetEnv].
	Run(context.Context) error
}

// HasFlags is an [App] that has flags.
type HasFlags interface {
	App

	// Flags adds flags to the flag set. Environment variables can be read
	// from the [Env] in ctx.
	Flags(ctx context.Context, fs *flag.FlagSet)
}

// AppFunc is a function implementing [App] without flags.
type AppFunc func(context.Context) error

// Run calls f(ctx).
func (f AppFunc) Run(ctx context.Context) error { return f(ctx) }

// Env is the environment of an application.
type Env struct {
	Args   []string
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv returns the environment of the current process.
func OSEnv() *Env {
	return &Env{
		Args:   os.Args[1:],
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type envKey struct{}

// WithEnv returns a copy of ctx carrying env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// GetEnv returns the [Env] stored in ctx, or [OSEnv] if there is none.
func GetEnv(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok {
		return env
	}
	return OSEnv()
}

// Run parses flags from the environment in ctx and runs app.
func Run(ctx context.Context, app App) error {
	env := GetEnv(ctx)
	name := version.CmdName()

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	if fa, ok := app.(HasFlags); ok {
		fa.Flags(ctx, flags)
	}
	var showVersion bool
	if flags.Lookup("version") == nil {
		flags.BoolVar(&showVersion, "version", false, "Show version.")
	}

	flags.Usage = usage(flags, env.Stderr)
	flags.SetOutput(env.Stderr)
	if err := flags.Parse(env.Args); err != nil {
		// Already printed to stderr by the flag package.
		if errors.Is(err, flag.ErrHelp) {
			return &unprintableError{err}
		}
		return &unprintableError{fmt.Errorf("%w: %w", ErrInvalidArgs, err)}
	}

	if showVersion {
		fmt.Fprintln(env.Stderr, version.Version())
		return ErrExitVersion
	}
	env.Args = flags.Args()

	return app.Run(ctx)
}

func usage(flags *flag.FlagSet, stderr io.Writer) func() {
	return func() {
		if docSrc != nil {
			fmt.Fprintf(stderr, "%s\n", doc.Get(parseDocComment))
		}
		fmt.Fprint(stderr, "Available flags:\n\n")
		flags.PrintDefaults()
	}
}

var (
	docSrc []byte
	doc    syncx.Lazy[string]
)

// SetDocComment stores the source of the package doc comment, which is
// printed as the help message. The comment must be a single /* ... */ block
// with the delimiters on their own lines.
//
// In the program's doc.go:
//
//	//go:embed doc.go
//	var doc []byte
//
//	func init() { cli.SetDocComment(doc) }
func SetDocComment(src []byte) { docSrc = src }

func parseDocComment() string {
	s := bufio.NewScanner(bytes.NewReader(docSrc))
	var (
		doc       string
		inComment bool
	)
	for s.Scan() {
		line := s.Text()
		if line == "/*" {
			inComment = true
			continue
		}
		if line == "*/" {
			break
		}
		if inComment {
			doc += line + "\n"
		}
	}
	return doc
}
