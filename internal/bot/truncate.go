// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import "unicode/utf8"

const ellipsis = "..."

// Truncate cuts s to at most limit characters. When s is too long, its first
// limit-3 characters are kept and followed by "...".
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := max(limit-len(ellipsis), 0)
	return string([]rune(s)[:keep]) + ellipsis
}
