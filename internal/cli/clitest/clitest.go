// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs a [cli.App] against table-driven cases with a fake
// environment.
package clitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.astrophena.name/bollybot/internal/cli"
)

// Case is a single invocation of an application.
type Case[App cli.App] struct {
	// Args are the command-line arguments.
	Args []string
	// Stdin is the optional standard input.
	Stdin io.Reader
	// Env are the environment variables visible to the application.
	Env map[string]string
	// WantErr is the expected error, checked with errors.Is.
	WantErr error
	// WantErrContains is a substring of the expected error message.
	WantErrContains string
	// WantNothingPrinted requires stdout and stderr to stay empty.
	WantNothingPrinted bool
	// WantInStdout is a substring expected in stdout.
	WantInStdout string
	// WantInStderr is a substring expected in stderr.
	WantInStderr string
	// CheckFunc performs additional checks after the application returned.
	CheckFunc func(*testing.T, App)
}

// Run creates an application with setup for every case and runs it.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	t.Helper()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)

			stdin := tc.Stdin
			if stdin == nil {
				stdin = strings.NewReader("")
			}
			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Getenv: Getenv(tc.Env),
				Stdin:  stdin,
				Stdout: &stdout,
				Stderr: &stderr,
			}

			err := cli.Run(cli.WithEnv(context.Background(), env), app)

			wantFail := tc.WantErr != nil || tc.WantErrContains != ""
			switch {
			case err == nil && wantFail:
				t.Fatalf("must fail (want %v %q)", tc.WantErr, tc.WantErrContains)
			case err != nil && !wantFail:
				t.Fatalf("unexpected error: %v", err)
			case err != nil && tc.WantErr != nil && !errors.Is(err, tc.WantErr):
				t.Fatalf("want error %v, got %v", tc.WantErr, err)
			case err != nil && tc.WantErrContains != "" && !strings.Contains(err.Error(), tc.WantErrContains):
				t.Fatalf("error must contain %q, got %v", tc.WantErrContains, err)
			}

			if tc.WantNothingPrinted {
				if stdout.Len() > 0 {
					t.Errorf("stdout must be empty, got: %q", stdout.String())
				}
				if stderr.Len() > 0 {
					t.Errorf("stderr must be empty, got: %q", stderr.String())
				}
			}
			if tc.WantInStdout != "" && !strings.Contains(stdout.String(), tc.WantInStdout) {
				t.Errorf("stdout must contain %q, got: %q", tc.WantInStdout, stdout.String())
			}
			if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr.String())
			}

			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}

// Getenv returns a getenv function looking up names in env.
func Getenv(env map[string]string) func(string) string {
	return func(name string) string { return env[name] }
}
