// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decompose splits a research question into independent
// sub-questions for the parallel research path. The model proposes the
// split; when it is unavailable or its reply cannot be parsed, a
// rule-based split by query type is used.
package decompose

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/pkg/types"
)

// QueryType classifies a research question.
type QueryType string

const (
	QueryComparison QueryType = "comparison"
	QueryOverview   QueryType = "overview"
	QueryTrend      QueryType = "trend"
	QueryDeepDive   QueryType = "deep_dive"
)

func parseQueryType(s string) QueryType {
	switch QueryType(strings.ToLower(strings.TrimSpace(s))) {
	case QueryComparison:
		return QueryComparison
	case QueryOverview:
		return QueryOverview
	case QueryTrend:
		return QueryTrend
	default:
		return QueryDeepDive
	}
}

// SubQuestion is one independently researchable part of the query.
type SubQuestion struct {
	Question       string   `json:"question" yaml:"question"`
	Purpose        string   `json:"purpose" yaml:"purpose"`
	SearchKeywords []string `json:"search_keywords" yaml:"search_keywords"`
}

// Result is a decomposition of one query.
type Result struct {
	Query        string        `json:"query" yaml:"query"`
	QueryType    QueryType     `json:"query_type" yaml:"query_type"`
	Strategy     string        `json:"research_strategy" yaml:"research_strategy"`
	SubQuestions []SubQuestion `json:"sub_questions" yaml:"sub_questions"`
}

// Tasks converts the sub-questions into research tasks. Comparison
// queries search with the comparison strategy; the purpose becomes the
// focus point.
func (r Result) Tasks() []types.ResearchTask {
	strategy := types.StrategyBroad
	if r.QueryType == QueryComparison {
		strategy = types.StrategyComparison
	}
	tasks := make([]types.ResearchTask, len(r.SubQuestions))
	for i, sq := range r.SubQuestions {
		var focus []string
		if sq.Purpose != "" {
			focus = []string{sq.Purpose}
		}
		tasks[i] = types.NewResearchTask(sq.Question, sq.SearchKeywords, strategy, focus)
	}
	return tasks
}

const (
	decomposeTimeout     = 15 * time.Second
	decomposeMaxTokens   = 1000
	decomposeTemperature = 0.3
)

// Decomposer splits queries.
type Decomposer struct {
	gateway llm.Gateway
	logger  zerolog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decomposer) { d.logger = l }
}

// New builds a Decomposer. gateway may be nil.
func New(gateway llm.Gateway, opts ...Option) *Decomposer {
	d := &Decomposer{gateway: gateway, logger: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

type decomposeResponse struct {
	QueryType    string        `json:"query_type"`
	Strategy     string        `json:"research_strategy"`
	SubQuestions []SubQuestion `json:"sub_questions"`
}

// Decompose splits query into at most maxSub sub-questions. A
// non-positive maxSub keeps every sub-question.
func (d *Decomposer) Decompose(ctx context.Context, query string, maxSub int) Result {
	res := d.decompose(ctx, query)
	if maxSub > 0 && len(res.SubQuestions) > maxSub {
		res.SubQuestions = res.SubQuestions[:maxSub]
	}
	d.logger.Info().
		Str("query_type", string(res.QueryType)).
		Int("sub_questions", len(res.SubQuestions)).
		Msg("query decomposed")
	return res
}

func (d *Decomposer) decompose(ctx context.Context, query string) Result {
	if d.gateway == nil {
		return Fallback(query)
	}

	reply, err := d.gateway.Chat(ctx, llm.ChatRequest{
		Prompt:      systemPrompt + "\n\nResearch question: " + query,
		Task:        llm.TaskDecompose,
		MaxTokens:   decomposeMaxTokens,
		Temperature: decomposeTemperature,
		Timeout:     decomposeTimeout,
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("decomposition failed, using fallback")
		return Fallback(query)
	}

	var parsed decomposeResponse
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		d.logger.Warn().Err(err).Msg("unparseable decomposition, using fallback")
		return Fallback(query)
	}

	var subs []SubQuestion
	for _, sq := range parsed.SubQuestions {
		if strings.TrimSpace(sq.Question) != "" {
			subs = append(subs, sq)
		}
	}
	if len(subs) == 0 {
		return Fallback(query)
	}
	return Result{
		Query:        query,
		QueryType:    parseQueryType(parsed.QueryType),
		Strategy:     parsed.Strategy,
		SubQuestions: subs,
	}
}

var comparisonMarkers = []string{" vs", "versus", "compar", "differ", " and ", " or "}

// IsComparison reports whether query reads as a comparison of two or
// more subjects.
func IsComparison(query string) bool {
	q := " " + strings.ToLower(query) + " "
	for _, m := range comparisonMarkers {
		if strings.Contains(q, m) {
			return true
		}
	}
	return false
}

// Fallback splits query without the model: comparison questions get one
// sub-question per subject plus a synthesis, everything else goes from
// fundamentals to recent work to applications.
func Fallback(query string) Result {
	if IsComparison(query) {
		return Result{
			Query:     query,
			QueryType: QueryComparison,
			Strategy:  "research each subject, then compare",
			SubQuestions: []SubQuestion{
				{Question: query + " - core characteristics of the first subject", Purpose: "understand the first subject", SearchKeywords: []string{query}},
				{Question: query + " - core characteristics of the second subject", Purpose: "understand the second subject", SearchKeywords: []string{query}},
				{Question: query + " - comparative analysis", Purpose: "compare", SearchKeywords: []string{query, "comparison"}},
			},
		}
	}
	return Result{
		Query:     query,
		QueryType: QueryDeepDive,
		Strategy:  "from fundamentals to recent work to applications",
		SubQuestions: []SubQuestion{
			{Question: query + " - fundamental concepts", Purpose: "background", SearchKeywords: []string{query, "introduction"}},
			{Question: query + " - recent progress", Purpose: "state of the art", SearchKeywords: []string{query, "recent advances"}},
			{Question: query + " - applications", Purpose: "practical use", SearchKeywords: []string{query, "application"}},
		},
	}
}
