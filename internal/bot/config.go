// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"errors"
	"time"
)

// Config holds the scheduling constants of the bot. It's copied into the
// [Bot] at construction and never changes afterwards.
type Config struct {
	// Interval is the target pause between two cycles.
	Interval time.Duration
	// Jitter is the maximum random deviation from Interval, in either
	// direction. It has one-second resolution.
	Jitter time.Duration
	// RateLimitCooldown is the pause after the platform reported that the bot
	// posts too often.
	RateLimitCooldown time.Duration
	// ErrorCooldown is the pause after any other failure.
	ErrorCooldown time.Duration
	// MaxPostLen is the post length budget in characters.
	MaxPostLen int
	// StageTimeout bounds each remote step of a cycle: fetching the feed,
	// generating keywords, generating the post and publishing it.
	StageTimeout time.Duration
}

// DefaultConfig returns the production schedule: a post roughly every three
// and a half hours, six to seven posts a day.
func DefaultConfig() Config {
	return Config{
		Interval:          12600 * time.Second,
		Jitter:            900 * time.Second,
		RateLimitCooldown: 1800 * time.Second,
		ErrorCooldown:     300 * time.Second,
		MaxPostLen:        280,
		StageTimeout:      2 * time.Minute,
	}
}

func (c Config) validate() error {
	switch {
	case c.Interval <= 0:
		return errors.New("interval must be positive")
	case c.Jitter < 0 || c.Jitter >= c.Interval:
		return errors.New("jitter must be non-negative and less than interval")
	case c.RateLimitCooldown <= 0 || c.ErrorCooldown <= 0:
		return errors.New("cooldowns must be positive")
	case c.StageTimeout <= 0:
		return errors.New("stage timeout must be positive")
	case c.MaxPostLen <= len(ellipsis):
		return errors.New("post length budget is too small")
	}
	return nil
}
