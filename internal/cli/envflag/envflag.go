// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package envflag defines flags whose defaults can be overridden by
// environment variables.
package envflag

import (
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Type is the set of value types supported by [Value].
type Type interface {
	int | bool | string | time.Duration
}

// Value defines a flag with the given name, default value and usage on fs. If
// getenv(envName) returns a non-empty string that parses as T, it replaces
// the default. An explicit flag on the command line wins over both.
func Value[T Type](
	name, envName string, value T, usage string,
	fs *flag.FlagSet, getenv func(string) string,
) *T {
	result := value
	if s := getenv(envName); s != "" {
		if v, err := parse[T](s); err == nil {
			result = v
		}
	}
	usage += " Can be overridden by " + envName + " environment variable."
	fs.Var(&flagValue[T]{&result}, name, usage)
	return &result
}

type flagValue[T Type] struct{ p *T }

func (f *flagValue[T]) String() string {
	if f == nil || f.p == nil {
		return ""
	}
	return fmt.Sprint(*f.p)
}

func (f *flagValue[T]) Set(s string) error {
	v, err := parse[T](s)
	if err != nil {
		return err
	}
	*f.p = v
	return nil
}

// IsBoolFlag lets boolean flags be set without a value.
func (f *flagValue[T]) IsBoolFlag() bool {
	var zero T
	_, ok := any(zero).(bool)
	return ok
}

func parse[T Type](s string) (T, error) {
	var (
		v   any
		err error
	)
	var zero T
	switch any(zero).(type) {
	case int:
		v, err = strconv.Atoi(s)
	case bool:
		v, err = strconv.ParseBool(s)
	case string:
		v = s
	case time.Duration:
		v, err = time.ParseDuration(s)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
