// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"fmt"
	"time"
)

// State is the lifecycle phase of a [Bot].
type State string

// Lifecycle phases.
const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateHalted       State = "halted"
	StateStopped      State = "stopped"
)

// Status is a snapshot of what the loop is doing. It's safe to request from
// other goroutines.
type Status struct {
	State       State     `json:"state"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastOutcome Outcome   `json:"last_outcome,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	NextRun     time.Time `json:"next_run,omitzero"`
}

// Status returns a copy of the current status.
func (b *Bot) Status() Status {
	var st Status
	b.status.RAccess(func(s *Status) { st = *s })
	return st
}

// Healthy reports whether the loop is still able to post. It implements the
// health check of the debug server.
func (b *Bot) Healthy() error {
	st := b.Status()
	if st.State == StateHalted {
		return fmt.Errorf("bot halted: %s", st.LastError)
	}
	return nil
}

func (b *Bot) setState(s State) {
	b.status.Access(func(st *Status) { st.State = s })
}
