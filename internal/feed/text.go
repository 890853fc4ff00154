// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText strips markup from an entry summary and collapses whitespace.
// Google News summaries are an anchor followed by the publisher name.
func plainText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
