// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"go.astrophena.name/bollybot/internal/testutil"
)

func TestLoadInfo(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		bi          *debug.BuildInfo
		ok          bool
		wantVersion string
		wantCommit  string
		wantDirty   bool
	}{
		"no build info": {
			ok:          false,
			wantVersion: "devel",
		},
		"devel with vcs": {
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2026-10-01T10:00:00Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			ok:          true,
			wantVersion: "devel",
			wantCommit:  "abc123",
			wantDirty:   true,
		},
		"tagged release": {
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.3"},
			},
			ok:          true,
			wantVersion: "v1.2.3",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			i := loadInfo(func() (*debug.BuildInfo, bool) { return tc.bi, tc.ok })
			testutil.AssertEqual(t, i.Version, tc.wantVersion)
			testutil.AssertEqual(t, i.Commit, tc.wantCommit)
			testutil.AssertEqual(t, i.Dirty, tc.wantDirty)
		})
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		info Info
		want string
	}{
		"release": {
			info: Info{Name: "bollybot", Version: "v1.0.0"},
			want: "bollybot/v1.0.0 (+https://astrophena.name/bleep-bloop)",
		},
		"devel uses commit": {
			info: Info{Name: "bollybot", Version: "devel", Commit: "abc123"},
			want: "bollybot/abc123 (+https://astrophena.name/bleep-bloop)",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, userAgent(tc.info), tc.want)
		})
	}
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	s := Info{
		Name:    "bollybot",
		Version: "devel",
		Commit:  "abc123",
		Dirty:   true,
		Go:      "go1.24.0",
		OS:      "linux",
		Arch:    "amd64",
	}.String()

	if !strings.HasPrefix(s, "bollybot devel (go1.24.0, linux/amd64)\n") {
		t.Fatalf("unexpected first line: %q", s)
	}
	if !strings.Contains(s, "commit abc123-dirty\n") {
		t.Fatalf("commit line missing: %q", s)
	}
}
