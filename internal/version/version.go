// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package version provides the version and build information.
package version

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Info is the version and build information of the current binary.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`   // BuildInfo's vcs.revision
	BuiltAt string `json:"built_at"` // BuildInfo's vcs.time
	Dirty   bool   `json:"dirty"`    // BuildInfo's vcs.modified
	Go      string `json:"go"`       // runtime.Version()
	OS      string `json:"os"`       // runtime.GOOS
	Arch    string `json:"arch"`     // runtime.GOARCH
}

// String implements the fmt.Stringer interface.
func (i Info) String() string {
	var sb strings.Builder

	sb.WriteString(i.Name + " " + i.Version + " (" + i.Go + ", " + i.OS + "/" + i.Arch + ")\n")
	if i.Commit != "" {
		commit := i.Commit
		if i.Dirty {
			commit += "-dirty"
		}
		sb.WriteString("commit " + commit + "\n")
	}
	if i.BuiltAt != "" {
		sb.WriteString("built at " + i.BuiltAt + "\n")
	}

	return sb.String()
}

// CmdName returns the base name of the current binary.
func CmdName() string { return Version().Name }

// Version returns the version and build information of the current binary.
func Version() Info { return info() }

// UserAgent returns a User-Agent string used for outgoing HTTP requests.
func UserAgent() string { return userAgent(info()) }

var info = sync.OnceValue(func() Info {
	return loadInfo(debug.ReadBuildInfo)
})

const botInfoURL = "https://astrophena.name/bleep-bloop"

func userAgent(i Info) string {
	ver := i.Version
	if ver == "devel" && i.Commit != "" {
		ver = i.Commit
	}
	return i.Name + "/" + ver + " (+" + botInfoURL + ")"
}

func loadInfo(read func() (*debug.BuildInfo, bool)) Info {
	i := Info{
		Name:    "bollybot",
		Version: "devel",
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if exe, err := os.Executable(); err == nil {
		if name := filepath.Base(exe); name != "" && !strings.HasSuffix(name, ".test") {
			i.Name = name
		}
	}

	bi, ok := read()
	if !ok {
		return i
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		i.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			i.Commit = s.Value
		case "vcs.time":
			i.BuiltAt = s.Value
		case "vcs.modified":
			i.Dirty = s.Value == "true"
		}
	}
	return i
}
