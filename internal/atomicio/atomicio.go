// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package atomicio provides atomic file writing with optional backups.
package atomicio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const backupTimeFormat = "20060102150405.000000000"

// Option configures [WriteFile].
type Option func(*options)

type options struct {
	backups int
	now     func() time.Time
}

// WithBackups makes [WriteFile] keep up to n previous versions of the file
// next to it, named "<name>.<timestamp>.bak". Older backups are pruned.
func WithBackups(n int) Option {
	return func(o *options) { o.backups = max(n, 0) }
}

// WriteFile writes data to a file atomically: readers observe either the old
// or the new contents, never a partially written file.
func WriteFile(name string, data []byte, perm fs.FileMode, opts ...Option) (err error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	// The temporary file must live on the same filesystem for os.Rename to be
	// atomic.
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if o.backups > 0 {
		if err := backup(name, o.now()); err != nil {
			return err
		}
	}

	if err := os.Rename(f.Name(), name); err != nil {
		return err
	}

	if o.backups > 0 {
		return pruneBackups(name, o.backups)
	}
	return nil
}

func backup(name string, now time.Time) error {
	b, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(name+"."+now.UTC().Format(backupTimeFormat)+".bak", b, 0o600)
}

func pruneBackups(name string, keep int) error {
	backups, err := filepath.Glob(name + ".*.bak")
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}

	slices.Sort(backups)
	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(b); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
