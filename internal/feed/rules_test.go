// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package feed

import (
	"testing"

	"go.astrophena.name/bollybot/internal/testutil"

	"github.com/mmcdole/gofeed"
)

func TestRulesAllow(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		src  string
		item *gofeed.Item
		want bool
	}{
		"blocked": {
			src:  `block_rule = lambda item: "obituary" in item.title.lower()`,
			item: &gofeed.Item{Title: "Obituary: a legend"},
			want: false,
		},
		"not blocked": {
			src:  `block_rule = lambda item: "obituary" in item.title.lower()`,
			item: &gofeed.Item{Title: "Film crosses 100 crore"},
			want: true,
		},
		"kept": {
			src:  `keep_rule = lambda item: "crore" in item.description`,
			item: &gofeed.Item{Title: "Box office", Description: "<b>100 crore</b> weekend"},
			want: true,
		},
		"not kept": {
			src:  `keep_rule = lambda item: "crore" in item.description`,
			item: &gofeed.Item{Title: "Trailer out"},
			want: false,
		},
		"categories": {
			src:  `block_rule = lambda item: "Politics" in item.categories`,
			item: &gofeed.Item{Title: "Actor joins party", Categories: []string{"Politics"}},
			want: false,
		},
		"function definition": {
			src: `
def block_rule(item):
    for word in ["death", "dies"]:
        if word in item.title.lower():
            return True
    return False
`,
			item: &gofeed.Item{Title: "Star dies at 90"},
			want: false,
		},
		"failing block rule keeps the item": {
			src:  `block_rule = lambda item: item.missing`,
			item: &gofeed.Item{Title: "Anything"},
			want: true,
		},
		"non-boolean keep rule drops the item": {
			src:  `keep_rule = lambda item: "yes"`,
			item: &gofeed.Item{Title: "Anything"},
			want: false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r, err := ParseRules("rules.star", []byte(tc.src), nil)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, r.Allow(tc.item), tc.want)
		})
	}
}

func TestParseRulesErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"syntax error":    `block_rule = lambda item:`,
		"no rules":        `x = 1`,
		"not a function":  `block_rule = True`,
		"runtime failure": `fail("broken")`,
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseRules("rules.star", []byte(src), nil); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, "rules.star", []byte(`block_rule = lambda item: item.url.startswith("https://spam.example")`))
	r, err := LoadRules(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, r.Allow(&gofeed.Item{Title: "Ad", Link: "https://spam.example/x"}), false)

	if _, err := LoadRules(path+".missing", nil); err == nil {
		t.Fatal("want error for missing file")
	}
}
