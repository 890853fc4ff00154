// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feed fetches candidate stories from an RSS or Atom feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/bollybot/internal/request"
	"go.astrophena.name/bollybot/internal/version"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/mmcdole/gofeed"
)

// DefaultURL is the Google News India search feed for Bollywood gossip and
// box office news.
const DefaultURL = "https://news.google.com/rss/search?q=Bollywood+gossip+OR+Box+Office+India+OR+Indian+Film+Celebrity&hl=en-IN&gl=IN&ceid=IN:en"

// DefaultTop is the number of leading entries considered by [RandomTop].
const DefaultTop = 7

const (
	defaultRetries = 3
	defaultBackoff = time.Second
)

// Item is a story picked from the feed.
type Item struct {
	// ID is the headline. It identifies the story in the posting history.
	ID string
	// Context is the headline together with the summary, ready to be handed to
	// the text generator.
	Context string
}

// Source fetches the feed at a fixed URL. It is not safe for concurrent use.
type Source struct {
	url       string
	httpc     *http.Client
	parser    *gofeed.Parser
	logger    *slog.Logger
	selection Selection
	top       int
	rules     *Rules
	intn      func(int) int
	retries   int
	backoff   time.Duration
	executor  failsafe.Executor[*http.Response]
}

// Option configures a [Source].
type Option func(*Source)

// WithHTTPClient makes the Source use c for fetching.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.httpc = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithSelection sets the policy used to choose among entries. top is only
// used by [RandomTop]; zero or less means [DefaultTop].
func WithSelection(sel Selection, top int) Option {
	return func(s *Source) {
		s.selection = sel
		if top > 0 {
			s.top = top
		}
	}
}

// WithRules filters feed entries through r before selection.
func WithRules(r *Rules) Option {
	return func(s *Source) { s.rules = r }
}

// WithRetries sets how many times a failed fetch is retried and the initial
// backoff between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(s *Source) {
		s.retries = max(n, 0)
		s.backoff = backoff
	}
}

// NewSource returns a Source for the feed at url.
func NewSource(url string, opts ...Option) *Source {
	s := &Source{
		url:       url,
		httpc:     request.DefaultClient,
		parser:    gofeed.NewParser(),
		logger:    slog.New(slog.DiscardHandler),
		selection: Freshest,
		top:       DefaultTop,
		intn:      rand.IntN,
		retries:   defaultRetries,
		backoff:   defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.executor = failsafe.With(newRetryPolicy(s.retries, s.backoff))
	return s
}

//nolint:bodyclose // *http.Response is a type parameter here
func newRetryPolicy(retries int, backoff time.Duration) retrypolicy.RetryPolicy[*http.Response] {
	b := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(shouldRetry).
		WithMaxRetries(retries)
	if backoff > 0 {
		b = b.WithBackoff(backoff, 10*backoff).WithJitterFactor(0.1)
	}
	return b.Build()
}

func shouldRetry(res *http.Response, err error) bool {
	if err != nil || res == nil {
		return true
	}
	return res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
}

// FetchLatest fetches the feed and picks a story according to the selection
// policy. It returns false if the feed can't be fetched or has no usable
// entries; fetch errors are logged, not returned.
func (s *Source) FetchLatest(ctx context.Context) (Item, bool) {
	s.logger.DebugContext(ctx, "checking feed for fresh stories", "feed", s.url)

	f, err := s.fetch(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "fetching feed failed", "feed", s.url, "error", err)
		return Item{}, false
	}

	entries := s.filter(f.Items)
	if len(entries) == 0 {
		return Item{}, false
	}

	entry := s.pick(entries)
	item := Item{
		ID:      strings.TrimSpace(entry.Title),
		Context: storyContext(entry),
	}
	s.logger.DebugContext(ctx, "found story", "title", item.ID, "entries", len(entries))
	return item, true
}

//nolint:bodyclose // closed by the caller of fetch through the parser
func (s *Source) fetch(ctx context.Context) (*gofeed.Feed, error) {
	res, err := s.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", version.UserAgent())

		res, err := s.httpc.Do(req)
		if err == nil && shouldRetry(res, nil) {
			// This attempt is discarded; free the connection.
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
		}
		return res, err
	})
	if err != nil {
		if res != nil && res.Body != nil {
			res.Body.Close()
		}
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("want 200, got %d", res.StatusCode)
	}

	return s.parser.Parse(res.Body)
}

func (s *Source) filter(items []*gofeed.Item) []*gofeed.Item {
	var entries []*gofeed.Item
	for _, it := range items {
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		if s.rules != nil && !s.rules.Allow(it) {
			s.logger.Debug("skipped by rules", "title", it.Title)
			continue
		}
		entries = append(entries, it)
	}
	return entries
}

func (s *Source) pick(entries []*gofeed.Item) *gofeed.Item {
	if s.selection == RandomTop {
		n := min(len(entries), s.top)
		return entries[s.intn(n)]
	}
	return entries[0]
}

func storyContext(it *gofeed.Item) string {
	title := strings.TrimSpace(it.Title)
	summary := plainText(it.Description)
	if summary == "" {
		summary = plainText(it.Content)
	}
	if summary == "" {
		return "Headline: " + title + "."
	}
	return "Headline: " + title + ". Summary: " + summary
}
