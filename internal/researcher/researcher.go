// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package researcher runs one research task: search, de-duplicate,
// compress through the LLM, and return the compressed result together
// with the raw paper list for offloading. A Researcher never returns an
// error; search and LLM failures degrade to a deterministic compression.
package researcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	// fallbackTop is how many papers the deterministic compressor keeps.
	fallbackTop = 5
	// fallbackParts bounds the sentences in fallback findings and key points.
	fallbackParts = 3
	// minSentenceLen is the shortest first sentence worth quoting.
	minSentenceLen = 20

	// supplementMax is how many arXiv papers may be injected when the
	// model selected none.
	supplementMax = 2
	// supplementBelow skips injection once this many sources are selected.
	supplementBelow = 5

	supplementContribution = "latest research (supplementary)"
	missingFindings        = "unable to extract findings"
)

// Researcher is a stateless worker. It is safe to share across goroutines
// as long as its gateways are.
type Researcher struct {
	searcher search.Searcher
	gateway  llm.Gateway
	cfg      types.ResearcherConfig
	logger   zerolog.Logger
}

// Option configures a Researcher.
type Option func(*Researcher)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Researcher) { r.logger = l }
}

// New builds a Researcher. gateway may be nil, in which case every task
// uses the deterministic compressor. Zero config fields take defaults.
func New(searcher search.Searcher, gateway llm.Gateway, cfg types.ResearcherConfig, opts ...Option) *Researcher {
	def := types.DefaultResearcherConfig()
	if cfg.PapersPerSearch <= 0 {
		cfg.PapersPerSearch = def.PapersPerSearch
	}
	if cfg.KeywordsPerTask <= 0 {
		cfg.KeywordsPerTask = def.KeywordsPerTask
	}
	if cfg.CompressTimeout <= 0 {
		cfg.CompressTimeout = def.CompressTimeout
	}
	if cfg.CompressMaxTokens <= 0 {
		cfg.CompressMaxTokens = def.CompressMaxTokens
	}
	r := &Researcher{searcher: searcher, gateway: gateway, cfg: cfg, logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Research executes task for the given supervisor round.
func (r *Researcher) Research(ctx context.Context, task types.ResearchTask, round int) (types.CompressedResearch, types.RawNote) {
	log := r.logger.With().Str("topic", task.Topic).Int("round", round).Logger()
	log.Info().Strs("keywords", task.SearchKeywords).Str("strategy", string(task.Strategy)).Msg("research started")

	papers := r.searchPapers(ctx, task, log)
	raw := types.RawNote{
		Topic:          task.Topic,
		Papers:         papers,
		SearchKeywords: task.SearchKeywords,
		RoundNumber:    round,
		CreatedAt:      time.Now(),
	}

	if len(papers) == 0 {
		log.Warn().Msg("no papers found")
		return emptyResult(task), raw
	}

	var result types.CompressedResearch
	if r.gateway != nil {
		var ok bool
		result, raw.LLMResponse, ok = r.compressWithLLM(ctx, task, papers, log)
		if !ok {
			result = compressFallback(task, papers)
		}
	} else {
		result = compressFallback(task, papers)
	}

	log.Info().Int("selected", result.PapersSelected).Int("searched", result.PapersSearched).Msg("research finished")
	return result, raw
}

// searchLimit returns the per-keyword result limit for a strategy.
func (r *Researcher) searchLimit(s types.Strategy) int {
	if s == types.StrategyFocused {
		return max(1, r.cfg.PapersPerSearch/2)
	}
	return r.cfg.PapersPerSearch
}

func (r *Researcher) searchPapers(ctx context.Context, task types.ResearchTask, log zerolog.Logger) []types.PaperRecord {
	limit := r.searchLimit(task.Strategy)
	keywords := task.SearchKeywords
	if len(keywords) > r.cfg.KeywordsPerTask {
		keywords = keywords[:r.cfg.KeywordsPerTask]
	}

	seen := make(map[string]bool)
	var papers []types.PaperRecord
	for _, kw := range keywords {
		found, err := r.searcher.Search(ctx, kw, limit)
		if err != nil {
			log.Error().Err(err).Str("keyword", kw).Msg("search failed")
			continue
		}
		for _, p := range found {
			key := types.NormalizeTitle(p.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			papers = append(papers, p)
		}
	}
	return papers
}

type compressResponse struct {
	Findings       *string         `json:"findings"`
	KeyPoints      []string        `json:"key_points"`
	RelevantPapers []relevantPaper `json:"relevant_papers"`
	Gaps           string          `json:"gaps"`
}

type relevantPaper struct {
	Title           string `json:"title"`
	KeyContribution string `json:"key_contribution"`
}

// compressWithLLM returns the compressed result, the raw model reply, and
// whether compression succeeded.
func (r *Researcher) compressWithLLM(ctx context.Context, task types.ResearchTask, papers []types.PaperRecord, log zerolog.Logger) (types.CompressedResearch, string, bool) {
	prompt, err := renderCompressPrompt(task, papers)
	if err != nil {
		log.Error().Err(err).Msg("rendering compression prompt")
		return types.CompressedResearch{}, "", false
	}

	reply, err := r.gateway.Chat(ctx, llm.ChatRequest{
		Prompt:      prompt,
		Task:        llm.TaskCompress,
		MaxTokens:   r.cfg.CompressMaxTokens,
		Temperature: r.cfg.CompressTemperature,
		Timeout:     r.cfg.CompressTimeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("compression failed, using fallback")
		return types.CompressedResearch{}, "", false
	}

	var parsed compressResponse
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		log.Warn().Err(err).Msg("unparseable compression reply, using fallback")
		return types.CompressedResearch{}, reply, false
	}

	findings := missingFindings
	if parsed.Findings != nil {
		findings = *parsed.Findings
	}
	sources := matchSources(parsed.RelevantPapers, papers)
	return types.CompressedResearch{
		Topic:          task.Topic,
		Findings:       findings,
		KeyPoints:      parsed.KeyPoints,
		Sources:        sources,
		Gaps:           parsed.Gaps,
		PapersSearched: len(papers),
		PapersSelected: len(sources),
	}, reply, true
}

// matchSources maps the model's relevant papers back to search results by
// title containment in either direction, then injects recent arXiv
// papers when the selection has none.
func matchSources(relevant []relevantPaper, papers []types.PaperRecord) []types.SourceRecord {
	chosen := make(map[string]bool)
	var sources []types.SourceRecord

	for _, rp := range relevant {
		want := types.NormalizeTitle(rp.Title)
		if want == "" {
			continue
		}
		for _, p := range papers {
			have := types.NormalizeTitle(p.Title)
			if have == "" || !(strings.Contains(have, want) || strings.Contains(want, have)) {
				continue
			}
			if !chosen[have] {
				chosen[have] = true
				sources = append(sources, types.NewSourceRecord(p, rp.KeyContribution))
			}
			break
		}
	}

	if hasSource(sources, "arxiv") || len(sources) >= supplementBelow {
		return sources
	}

	var arxiv []types.PaperRecord
	for _, p := range papers {
		if p.Source == "arxiv" {
			arxiv = append(arxiv, p)
		}
	}
	sort.SliceStable(arxiv, func(i, j int) bool { return arxiv[i].Year > arxiv[j].Year })
	for i, p := range arxiv {
		if i == supplementMax {
			break
		}
		key := types.NormalizeTitle(p.Title)
		if chosen[key] {
			continue
		}
		chosen[key] = true
		sources = append(sources, types.NewSourceRecord(p, supplementContribution))
	}
	return sources
}

func hasSource(sources []types.SourceRecord, provider string) bool {
	for _, s := range sources {
		if s.Source == provider {
			return true
		}
	}
	return false
}

// compressFallback summarizes without the LLM: the most cited papers, with
// the first sentence of each abstract as findings.
func compressFallback(task types.ResearchTask, papers []types.PaperRecord) types.CompressedResearch {
	sorted := make([]types.PaperRecord, len(papers))
	copy(sorted, papers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CitationCount != sorted[j].CitationCount {
			return sorted[i].CitationCount > sorted[j].CitationCount
		}
		return sorted[i].Year > sorted[j].Year
	})
	top := sorted[:min(fallbackTop, len(sorted))]

	var parts, points []string
	for _, p := range top {
		if p.Abstract == "" {
			continue
		}
		first, _, _ := strings.Cut(p.Abstract, ".")
		first = strings.TrimSpace(first)
		if len([]rune(first)) <= minSentenceLen {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s...: %s.", truncate(p.Title, 40), first))
		points = append(points, fmt.Sprintf("[%s] %s...", types.YearString(p.Year), truncate(p.Abstract, 60)))
	}

	findings := fmt.Sprintf("Based on %d papers: %s", len(papers), strings.Join(parts[:min(fallbackParts, len(parts))], " "))
	if len(points) == 0 {
		points = []string{"unable to extract key points"}
	} else {
		points = points[:min(fallbackParts, len(points))]
	}

	sources := make([]types.SourceRecord, len(top))
	for i, p := range top {
		sources[i] = types.NewSourceRecord(p, "")
	}

	return types.CompressedResearch{
		Topic:          task.Topic,
		Findings:       findings,
		KeyPoints:      points,
		Sources:        sources,
		PapersSearched: len(papers),
		PapersSelected: len(sources),
	}
}

func emptyResult(task types.ResearchTask) types.CompressedResearch {
	return types.CompressedResearch{
		Topic:     task.Topic,
		Findings:  "No papers found. The search keywords may need adjusting.",
		KeyPoints: []string{"no search results"},
		Sources:   []types.SourceRecord{},
		Gaps:      "need to change keywords and search again",
	}
}
