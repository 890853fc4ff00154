// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package filelock provides non-blocking advisory file locks used to keep a
// single instance of the bot running against a state file.
package filelock

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyLocked indicates the lock is currently held by another process.
var ErrAlreadyLocked = errors.New("already locked")

// Lock is a held file lock.
type Lock struct{ file *os.File }

// Acquire obtains a non-blocking exclusive lock on path and records the
// current process ID in it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, errors.Join(err, closeErr)
		}
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, ErrAlreadyLocked
		}
		return nil, err
	}

	l := &Lock{file: f}
	if err := l.writePID(os.Getpid()); err != nil {
		return nil, errors.Join(err, l.Release())
	}
	return l, nil
}

func (l *Lock) writePID(pid int) error {
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	if _, err := l.file.Seek(0, 0); err != nil {
		return err
	}
	_, err := l.file.WriteString("pid=" + strconv.Itoa(pid) + "\n")
	return err
}

// Holder returns the process ID recorded in the lock file at path, or 0 if it
// can't be determined.
func Holder(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	s, ok := strings.CutPrefix(strings.TrimSpace(string(b)), "pid=")
	if !ok {
		return 0
	}
	pid, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return pid
}

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		return errors.Join(err, l.file.Close())
	}
	return l.file.Close()
}
