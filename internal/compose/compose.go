// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package compose turns news stories into short social media posts using the
// Gemini API.
//
// Composing is done in two steps: first the model picks discovery keywords and
// hashtags for the story, then it writes the post around them.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const keywordsInstruction = `You are a social media growth strategist for Bollywood news.
Task: read the provided news and pick the words people search for.

Rules:
- Output exactly 5 high-engagement keyword phrases followed by exactly 2 hashtags.
- Separate all 7 items with commas, on a single line.
- Hashtags start with '#' and contain no spaces.
- Output nothing else: no numbering, no quotes, no explanations.`

const postInstruction = `You are a viral Bollywood Twitter influencer.
Task: rewrite the provided news into a dramatic, sarcastic Hinglish tweet.

Rules:
- Must mix Hindi and English (Hinglish slang is mandatory).
- Use dramatic words like: 'Bawal', 'Scene', 'Bhai', 'Queen', 'Flop', 'Blockbuster', 'Khatam'.
- Naturally weave in the provided keywords and end with the 2 provided hashtags.
- Max 280 characters, including hashtags.
- Be controversial or highly supportive to spark engagement.
- Output only the tweet text.`

// generator is the part of [genai.GenerativeModel] used by Composer.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Composer writes posts. It is safe for sequential use only.
type Composer struct {
	client   *genai.Client
	keywords generator
	post     generator
	logger   *slog.Logger
	fallback string // used when keywords are malformed; empty disables validation
}

// Option configures a [Composer].
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// WithKeywordFallback enables validation of the keywords returned by the
// model. When they don't look like five phrases followed by two hashtags, kw
// is used instead.
func WithKeywordFallback(kw string) Option {
	return func(c *Composer) { c.fallback = kw }
}

// New returns a Composer talking to Gemini with the given API key and model
// name. An empty model means [DefaultModel].
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Composer, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	kw := client.GenerativeModel(model)
	kw.SystemInstruction = genai.NewUserContent(genai.Text(keywordsInstruction))

	post := client.GenerativeModel(model)
	post.SystemInstruction = genai.NewUserContent(genai.Text(postInstruction))

	c := newComposer(kw, post, opts...)
	c.client = client
	return c, nil
}

func newComposer(keywords, post generator, opts ...Option) *Composer {
	c := &Composer{
		keywords: keywords,
		post:     post,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keywords asks the model for discovery keywords and hashtags for the story.
// The answer is returned as is, unless validation is enabled with
// [WithKeywordFallback].
func (c *Composer) Keywords(ctx context.Context, story string) (string, error) {
	kw, err := generate(ctx, c.keywords, story)
	if err != nil {
		return "", fmt.Errorf("generating keywords: %w", err)
	}
	if c.fallback != "" && !ValidKeywords(kw) {
		c.logger.WarnContext(ctx, "model returned malformed keywords, using fallback", "keywords", kw)
		return c.fallback, nil
	}
	return kw, nil
}

// Post asks the model to write a post about the story using keywords. The
// model is asked to stay within the character budget, but the result isn't
// checked.
func (c *Composer) Post(ctx context.Context, story, keywords string) (string, error) {
	prompt := story + "\n\nKeywords and hashtags to use: " + keywords
	post, err := generate(ctx, c.post, prompt)
	if err != nil {
		return "", fmt.Errorf("generating post: %w", err)
	}
	return post, nil
}

// Close releases the underlying Gemini client.
func (c *Composer) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func generate(ctx context.Context, g generator, prompt string) (string, error) {
	resp, err := g.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response (finish reason: %v)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.New("no text in response")
	}
	return sb.String(), nil
}

// ValidKeywords reports whether s is a single line of five keyword phrases
// followed by two hashtags, all separated by commas.
func ValidKeywords(s string) bool {
	if strings.ContainsAny(s, "\r\n") {
		return false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 7 {
		return false
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return false
		}
		isTag := strings.HasPrefix(p, "#")
		if i < 5 && isTag {
			return false
		}
		if i >= 5 && (!isTag || len(p) == 1 || strings.ContainsAny(p, " \t")) {
			return false
		}
	}
	return true
}
