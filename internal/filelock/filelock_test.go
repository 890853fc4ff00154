// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/bollybot/internal/testutil"
)

func TestAcquireConflict(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json.lock")
	first, err := Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := first.Release(); err != nil {
			t.Fatal(err)
		}
	})

	_, err = Acquire(path)
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("want %v, got %v", ErrAlreadyLocked, err)
	}
}

func TestAcquireRecordsPID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json.lock")
	lock, err := Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := lock.Release(); err != nil {
			t.Fatal(err)
		}
	})

	testutil.AssertEqual(t, Holder(path), os.Getpid())
}

func TestReleaseAllowsReacquire(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json.lock")
	lock, err := Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}

	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestHolderUnknown(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, Holder(filepath.Join(t.TempDir(), "missing.lock")), 0)
	testutil.AssertEqual(t, Holder(testutil.WriteFile(t, "garbage.lock", []byte("nope"))), 0)
}
