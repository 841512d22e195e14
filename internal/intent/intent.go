// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intent decides whether a question needs a full research run or
// a plain paper search. Keyword rules decide first; queries no rule
// matches go to the model when one is configured, else to a length rule.
package intent

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
)

// Mode is a routing decision.
type Mode string

const (
	// ModeSimple answers with a search and a reading guide.
	ModeSimple Mode = "simple"
	// ModeDeepResearch runs the supervisor loop.
	ModeDeepResearch Mode = "deep_research"
)

// Queries longer than longQuery runes default to deep research.
const longQuery = 30

var (
	complexMarkers = []string{"compare", "comparison", " vs", "versus", "difference", "pros and cons",
		"survey", "review of", "progress", "advances", "trend", "analy", "state of the art"}
	simpleMarkers = []string{"what is", "what are", "define", "definition", "introduction to",
		"who wrote", "who is the author", "which year", "when was"}
)

const (
	classifyTimeout   = 10 * time.Second
	classifyMaxTokens = 10
)

const classifyPrompt = `Classify the research question. Answer with exactly one word:
simple: a definition, a single fact, or a request for papers on a narrow topic.
deep_research: a comparison, survey, trend analysis, or multi-part question.

Question: `

// Router routes questions. The zero value uses rules only.
type Router struct {
	gateway llm.Gateway
	logger  zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New builds a Router. gateway may be nil.
func New(gateway llm.Gateway, opts ...Option) *Router {
	r := &Router{gateway: gateway, logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route picks the mode for query.
func (r *Router) Route(ctx context.Context, query string) Mode {
	if mode, ok := ByRules(query); ok {
		return mode
	}
	if r.gateway != nil {
		if mode, ok := r.classify(ctx, query); ok {
			return mode
		}
	}
	return ByLength(query)
}

// ByRules matches the keyword lists. Complex markers win over simple ones.
func ByRules(query string) (Mode, bool) {
	q := strings.ToLower(query)
	for _, m := range complexMarkers {
		if strings.Contains(q, m) {
			return ModeDeepResearch, true
		}
	}
	for _, m := range simpleMarkers {
		if strings.Contains(q, m) {
			return ModeSimple, true
		}
	}
	return "", false
}

// ByLength sends long queries to deep research.
func ByLength(query string) Mode {
	if utf8.RuneCountInString(strings.TrimSpace(query)) > longQuery {
		return ModeDeepResearch
	}
	return ModeSimple
}

func (r *Router) classify(ctx context.Context, query string) (Mode, bool) {
	reply, err := r.gateway.Chat(ctx, llm.ChatRequest{
		Prompt:    classifyPrompt + query,
		Task:      llm.TaskIntent,
		MaxTokens: classifyMaxTokens,
		Timeout:   classifyTimeout,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("intent classification failed, using length rule")
		return "", false
	}
	answer := strings.ToLower(reply)
	switch {
	case strings.Contains(answer, "deep"):
		return ModeDeepResearch, true
	case strings.Contains(answer, "simple"):
		return ModeSimple, true
	}
	r.logger.Warn().Str("reply", reply).Msg("unrecognized intent, using length rule")
	return "", false
}
