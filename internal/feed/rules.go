// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmcdole/gofeed"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Rules decide which feed entries may be posted. They are written in Starlark:
//
//	block_rule = lambda item: "obituary" in item.title.lower()
//	keep_rule = lambda item: "box office" in item.description.lower()
//
// Both functions are optional, but at least one must be defined. An entry is
// dropped if block_rule returns True or keep_rule returns False. The item
// passed to the rules has title, url, description and categories fields.
type Rules struct {
	block  *starlark.Function
	keep   *starlark.Function
	logger *slog.Logger
}

// LoadRules reads and evaluates a rules file. A nil logger discards messages
// printed by the rules and rule failures.
func LoadRules(path string, logger *slog.Logger) (*Rules, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(path, src, logger)
}

// ParseRules evaluates the rules in src. filename is used in error messages.
func ParseRules(filename string, src []byte, logger *slog.Logger) (*Rules, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Rules{logger: logger}

	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{TopLevelControl: true},
		r.thread(),
		filename,
		src,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if r.block, err = ruleFunc(globals, "block_rule"); err != nil {
		return nil, err
	}
	if r.keep, err = ruleFunc(globals, "keep_rule"); err != nil {
		return nil, err
	}
	if r.block == nil && r.keep == nil {
		return nil, errors.New("neither block_rule nor keep_rule is defined")
	}
	return r, nil
}

func ruleFunc(globals starlark.StringDict, name string) (*starlark.Function, error) {
	v, ok := globals[name]
	if !ok {
		return nil, nil
	}
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%s must be a function, got %s", name, v.Type())
	}
	return fn, nil
}

func (r *Rules) thread() *starlark.Thread {
	return &starlark.Thread{
		Name:  "rules",
		Print: func(_ *starlark.Thread, msg string) { r.logger.Info(msg) },
	}
}

// Allow reports whether item passes the rules.
func (r *Rules) Allow(item *gofeed.Item) bool {
	if r.block != nil && r.apply(r.block, item) {
		return false
	}
	if r.keep != nil && !r.apply(r.keep, item) {
		return false
	}
	return true
}

// apply calls rule with item. Failures and non-boolean results count as false.
func (r *Rules) apply(rule *starlark.Function, item *gofeed.Item) bool {
	categories := make([]starlark.Value, 0, len(item.Categories))
	for _, c := range item.Categories {
		categories = append(categories, starlark.String(c))
	}

	val, err := starlark.Call(
		r.thread(),
		rule,
		starlark.Tuple{starlarkstruct.FromStringDict(
			starlarkstruct.Default,
			starlark.StringDict{
				"title":       starlark.String(item.Title),
				"url":         starlark.String(item.Link),
				"description": starlark.String(plainText(item.Description)),
				"categories":  starlark.NewList(categories),
			},
		)},
		nil,
	)
	if err != nil {
		r.logger.Warn("applying rule", "rule", rule.Name(), "item", item.Title, "error", err)
		return false
	}

	ret, ok := val.(starlark.Bool)
	if !ok {
		r.logger.Warn("rule returned non-boolean value", "rule", rule.Name(), "item", item.Title)
		return false
	}
	return bool(ret)
}
