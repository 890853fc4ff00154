// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package feed

import "fmt"

// Selection is a policy for choosing one story among feed entries.
type Selection int

const (
	// Freshest picks the first entry in feed order.
	Freshest Selection = iota
	// RandomTop picks a random entry among the first few.
	RandomTop
)

func (s Selection) String() string {
	switch s {
	case Freshest:
		return "freshest"
	case RandomTop:
		return "random"
	default:
		return fmt.Sprintf("Selection(%d)", int(s))
	}
}

// ParseSelection parses the name of a selection policy as returned by
// [Selection.String].
func ParseSelection(name string) (Selection, error) {
	switch name {
	case "freshest", "":
		return Freshest, nil
	case "random":
		return RandomTop, nil
	default:
		return 0, fmt.Errorf("unknown selection policy %q (want \"freshest\" or \"random\")", name)
	}
}
