// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bollybot

import (
	"bytes"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var copyrightHeader = regexp.MustCompile(`^// © \d{4} Ilya Mateyko\. All rights reserved\.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE\.md file\.
`)

func goFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	for _, dir := range []string{"cmd", "internal"} {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return files
}

func TestCopyright(t *testing.T) {
	t.Parallel()

	for _, path := range goFiles(t) {
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !copyrightHeader.Match(b) {
			t.Errorf("%s: missing copyright header", path)
		}
	}
}

func TestGofmt(t *testing.T) {
	if os.Getenv("CI") != "true" {
		t.Skip("this test is only run in CI")
	}

	var buf bytes.Buffer
	c := exec.Command("gofmt", append([]string{"-l"}, goFiles(t)...)...)
	c.Stdout = &buf
	c.Stderr = &buf
	if err := c.Run(); err != nil {
		t.Fatalf("gofmt failed: %v\n%s", err, buf.String())
	}
	if buf.Len() > 0 {
		t.Fatalf("run gofmt on these files:\n%s", buf.String())
	}
}
