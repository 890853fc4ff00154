// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the posting loop: it takes the freshest story from a
// feed, turns it into a post with a text generation service, publishes the
// post and remembers the story so it's never posted twice.
//
// The loop heals itself. Every failure is classified and mapped to a cooldown,
// except revoked credentials, which halt the loop for good.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.astrophena.name/bollybot/internal/feed"
	"go.astrophena.name/bollybot/internal/history"
	"go.astrophena.name/bollybot/internal/logger"
	"go.astrophena.name/bollybot/internal/twitter"
	"go.astrophena.name/bollybot/internal/util/syncx"
)

// ErrHalted is returned by [Bot.Run] when the loop stopped because of a
// failure that retrying can't fix.
var ErrHalted = errors.New("bot halted")

// HistoryStore persists recently posted story identifiers.
type HistoryStore interface {
	Load(context.Context) history.History
	Save(ctx context.Context, h history.History, id string) (history.History, error)
}

// Source yields the story to post about, if there is one.
type Source interface {
	FetchLatest(context.Context) (feed.Item, bool)
}

// Writer generates post text for a story.
type Writer interface {
	Keywords(ctx context.Context, story string) (string, error)
	Post(ctx context.Context, story, keywords string) (string, error)
}

// Publisher makes a post public. It must wrap [twitter.ErrRateLimited] and
// [twitter.ErrUnauthorized] into the errors it returns when they apply.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Deps are the collaborators of a [Bot].
type Deps struct {
	History   HistoryStore
	Source    Source
	Writer    Writer
	Publisher Publisher
	// Metrics is optional.
	Metrics *Metrics
}

// Bot runs posting cycles on a schedule.
type Bot struct {
	cfg       Config
	history   HistoryStore
	source    Source
	writer    Writer
	publisher Publisher
	metrics   *Metrics
	status    *syncx.Protected[*Status]

	// for tests
	now   func() time.Time
	intn  func(int) int
	sleep func(context.Context, time.Duration) error
}

// New returns a Bot. It returns an error if cfg is unusable or a collaborator
// is missing.
func New(cfg Config, deps Deps) (*Bot, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.History == nil || deps.Source == nil || deps.Writer == nil || deps.Publisher == nil {
		return nil, errors.New("history, source, writer and publisher are required")
	}
	return &Bot{
		cfg:       cfg,
		history:   deps.History,
		source:    deps.Source,
		writer:    deps.Writer,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		status:    syncx.Protect(&Status{State: StateInitializing}),
		now:       time.Now,
		intn:      rand.IntN,
		sleep:     sleep,
	}, nil
}

// Outcome is the result of a cycle that didn't fail.
type Outcome int

const (
	// OutcomePosted means a new post was published and recorded.
	OutcomePosted Outcome = iota + 1
	// OutcomeNoItem means the feed had nothing to offer.
	OutcomeNoItem
	// OutcomeDuplicate means the story was posted recently and was skipped.
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomePosted:
		return "posted"
	case OutcomeNoItem:
		return "no_item"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result describes a finished cycle.
type Result struct {
	Outcome Outcome
	// Item is the story the cycle worked on. It's empty for OutcomeNoItem.
	Item feed.Item
	// Text is the published post. It's set only for OutcomePosted.
	Text string
}

// Cycle runs one fetch, generate and publish pass. Each remote step gets
// [Config.StageTimeout] to finish. A panic inside the cycle is recovered and
// returned as an error.
//
// History is saved only after the post was published. If saving fails, Cycle
// returns both the result and the error.
func (b *Bot) Cycle(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("panic during cycle: %v", r)
		}
	}()

	log := logger.Get(ctx)

	h := b.history.Load(ctx)

	var (
		item feed.Item
		ok   bool
	)
	b.stage(ctx, func(ctx context.Context) error {
		item, ok = b.source.FetchLatest(ctx)
		return nil
	})
	if !ok {
		return Result{Outcome: OutcomeNoItem}, nil
	}
	res.Item = item
	if h.Contains(item.ID) {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}

	log.InfoContext(ctx, "new story", "title", item.ID)

	var keywords string
	if err := b.stage(ctx, func(ctx context.Context) (err error) {
		keywords, err = b.writer.Keywords(ctx, item.Context)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("generating keywords: %w", err)
	}
	log.DebugContext(ctx, "generated keywords", "keywords", keywords)

	var body string
	if err := b.stage(ctx, func(ctx context.Context) (err error) {
		body, err = b.writer.Post(ctx, item.Context, keywords)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("generating post: %w", err)
	}
	text := Truncate(body, b.cfg.MaxPostLen)

	if err := b.stage(ctx, func(ctx context.Context) error {
		return b.publisher.Publish(ctx, text)
	}); err != nil {
		return Result{}, err
	}
	b.metrics.posted(b.now())

	res.Outcome, res.Text = OutcomePosted, text
	if _, err := b.history.Save(ctx, h, item.ID); err != nil {
		return res, fmt.Errorf("recording posted story: %w", err)
	}
	return res, nil
}

// stage runs f with a context that expires after [Config.StageTimeout].
func (b *Bot) stage(ctx context.Context, f func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.StageTimeout)
	defer cancel()
	return f(ctx)
}

// Run repeats [Bot.Cycle] until ctx is canceled or a fatal failure happens.
// After every cycle it writes exactly one log line describing what happened
// and when the next cycle starts.
//
// Run returns nil when ctx is canceled. On revoked credentials it returns an
// error wrapping both [ErrHalted] and [twitter.ErrUnauthorized].
func (b *Bot) Run(ctx context.Context) error {
	log := logger.Get(ctx)
	log.InfoContext(ctx, "bot started",
		"interval", b.cfg.Interval,
		"jitter", b.cfg.Jitter,
	)
	b.setState(StateRunning)

	for {
		res, err := b.Cycle(ctx)
		if ctx.Err() != nil {
			b.setState(StateStopped)
			return nil
		}

		wait, err := b.settle(ctx, res, err)
		if err != nil {
			b.setState(StateHalted)
			return err
		}
		b.status.Access(func(s *Status) { s.NextRun = b.now().Add(wait) })

		if err := b.sleep(ctx, wait); err != nil {
			log.InfoContext(ctx, "bot stopped", "reason", context.Cause(ctx))
			b.setState(StateStopped)
			return nil
		}
	}
}

// settle classifies the cycle result, logs the summary line and returns how
// long to wait before the next cycle. A non-nil error means the loop must
// stop.
func (b *Bot) settle(ctx context.Context, res Result, err error) (time.Duration, error) {
	log := logger.Get(ctx)

	b.status.Access(func(s *Status) {
		s.LastRun = b.now()
		s.LastOutcome = res.Outcome
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
	})

	switch {
	case err == nil:
	case errors.Is(err, twitter.ErrUnauthorized):
		b.metrics.cycle(labelUnauthorized)
		logger.Critical(ctx, log.Logger, "credentials rejected, halting; check the access token and secret", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrHalted, err)
	case errors.Is(err, twitter.ErrRateLimited):
		b.metrics.cycle(labelRateLimited)
		wait := b.cfg.RateLimitCooldown
		log.ErrorContext(ctx, "rate limited, cooling down", "error", err, "sleep", wait, "next_run", b.wakeUp(wait))
		return wait, nil
	default:
		b.metrics.cycle(labelError)
		wait := b.cfg.ErrorCooldown
		log.ErrorContext(ctx, "cycle failed, cooling down", "error", err, "sleep", wait, "next_run", b.wakeUp(wait))
		return wait, nil
	}

	b.metrics.cycle(res.Outcome.String())
	wait := b.nextInterval()
	switch res.Outcome {
	case OutcomePosted:
		log.InfoContext(ctx, "posted", "title", res.Item.ID, "text", res.Text, "sleep", wait, "next_run", b.wakeUp(wait))
	case OutcomeDuplicate:
		log.InfoContext(ctx, "story already posted, skipping", "title", res.Item.ID, "sleep", wait, "next_run", b.wakeUp(wait))
	default:
		log.WarnContext(ctx, "no fresh story found", "sleep", wait, "next_run", b.wakeUp(wait))
	}
	return wait, nil
}

// nextInterval returns the normal pause, randomized by up to Jitter in whole
// seconds in either direction.
func (b *Bot) nextInterval() time.Duration {
	j := int(b.cfg.Jitter / time.Second)
	return b.cfg.Interval + time.Duration(b.intn(2*j+1)-j)*time.Second
}

func (b *Bot) wakeUp(wait time.Duration) string {
	return b.now().Add(wait).Format(time.TimeOnly)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
