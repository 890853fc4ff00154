// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package history keeps a short record of recently posted headlines so the bot
// doesn't post the same story twice.
//
// The record is stored as a JSON array of strings, most recent first.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"go.astrophena.name/bollybot/internal/atomicio"
)

// DefaultCapacity is the number of identifiers kept by a [Store].
const DefaultCapacity = 5

// History is an ordered list of posted identifiers, most recent first.
type History []string

// Contains reports whether id has been posted recently.
func (h History) Contains(id string) bool { return slices.Contains(h, id) }

// Store loads and saves a [History] in a flat file. It is not safe for
// concurrent use.
type Store struct {
	path     string
	capacity int
	logger   *slog.Logger
}

// NewStore returns a Store backed by the file at path. A nil logger discards
// log output.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		path:     path,
		capacity: DefaultCapacity,
		logger:   logger,
	}
}

// Path returns the path of the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the stored history. A missing, unreadable or malformed file is
// treated as an empty history; the problem is logged and never returned.
func (s *Store) Load(ctx context.Context) History {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "no history yet", "path", s.path)
		return History{}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "unable to read history, starting empty", "path", s.path, "error", err)
		return History{}
	}

	var h History
	if err := json.Unmarshal(b, &h); err != nil {
		s.logger.WarnContext(ctx, "history is corrupted, starting empty", "path", s.path, "error", err)
		return History{}
	}
	if h == nil {
		h = History{}
	}
	if len(h) > s.capacity {
		h = h[:s.capacity]
	}
	return h
}

// Save puts id in front of h, drops the oldest entries beyond capacity, fully
// rewrites the backing file and returns the updated history. h itself is not
// modified.
func (s *Store) Save(ctx context.Context, h History, id string) (History, error) {
	updated := make(History, 0, s.capacity)
	updated = append(updated, id)
	updated = append(updated, h[:min(len(h), s.capacity-1)]...)

	b, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return h, fmt.Errorf("encoding history: %w", err)
	}
	if err := atomicio.WriteFile(s.path, append(b, '\n'), 0o644); err != nil {
		return h, fmt.Errorf("writing history: %w", err)
	}

	s.logger.DebugContext(ctx, "history saved", "path", s.path, "entries", len(updated))
	return updated, nil
}
